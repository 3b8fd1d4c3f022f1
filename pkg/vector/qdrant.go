package vector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/thalvik/semdex/pkg/models"
)

// pointNamespace is the fixed UUIDv5 namespace for point ids. Changing it
// orphans every existing record, so it never changes.
var pointNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Payload field names shared between upsert, search and stats.
const (
	payloadFilePath   = "file_path"
	payloadChunkIndex = "chunk_index"
	payloadContent    = "content"
	payloadLanguage   = "language"
	payloadIndexedAt  = "indexed_at"
)

// pathCandidateFactor oversamples search results when a path filter is set,
// since the substring match is applied client-side (Qdrant's full-text match
// is token-based, not substring).
const pathCandidateFactor = 20

// QdrantStore implements Store against a Qdrant server over gRPC.
type QdrantStore struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	service     qdrantclient.QdrantClient

	collection string
	dims       uint64
	timeout    time.Duration
}

// NewQdrantStore connects to the Qdrant gRPC endpoint at host:port. The
// connection is lazy; HealthCheck verifies actual reachability.
func NewQdrantStore(host string, port int, collection string, dims int, timeout time.Duration) (*QdrantStore, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s: %w", addr, err)
	}

	return &QdrantStore{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		service:     qdrantclient.NewQdrantClient(conn),
		collection:  collection,
		dims:        uint64(dims),
		timeout:     timeout,
	}, nil
}

// PointID returns the deterministic point id for (relPath, chunkIndex):
// a UUIDv5 of "path#index" in a fixed namespace. Re-indexing the same chunk
// position always overwrites the same record.
func PointID(relPath string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s#%d", relPath, chunkIndex))).String()
}

// HealthCheck verifies the Qdrant server responds.
func (s *QdrantStore) HealthCheck(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.service.HealthCheck(reqCtx, &qdrantclient.HealthCheckRequest{}); err != nil {
		return s.wrap("health check", err)
	}
	return nil
}

// EnsureCollection creates the collection with the configured vector size and
// cosine distance, or validates an existing one. Idempotent on match; a
// mismatched size or metric is ErrConfigMismatch.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.collectionExists(reqCtx)
	if err != nil {
		return err
	}

	if exists {
		size, distance, _, err := s.collectionConfig(reqCtx)
		if err != nil {
			return err
		}
		if size != s.dims {
			return fmt.Errorf("collection %q has vector size %d, config expects %d: %w",
				s.collection, size, s.dims, ErrConfigMismatch)
		}
		if distance != qdrantclient.Distance_Cosine {
			return fmt.Errorf("collection %q uses distance %s, config expects %s: %w",
				s.collection, distance, qdrantclient.Distance_Cosine, ErrConfigMismatch)
		}
		return nil
	}

	createReq := &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     s.dims,
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	}
	if _, err := s.collections.Create(reqCtx, createReq); err != nil {
		return s.wrap("create collection", err)
	}
	return nil
}

// DropCollection deletes the collection. Missing collections are a no-op.
func (s *QdrantStore) DropCollection(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collections.Delete(reqCtx, &qdrantclient.DeleteCollection{
		CollectionName: s.collection,
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return s.wrap("delete collection", err)
	}
	return nil
}

// Upsert writes one point per chunk, id'd by PointID. Vector lengths are
// validated against the collection config before any point is sent.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("upsert: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	points := make([]*qdrantclient.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		if uint64(len(vectors[i])) != s.dims {
			return fmt.Errorf("upsert %s chunk %d: vector has %d dimensions, collection expects %d: %w",
				chunk.FilePath, chunk.Index, len(vectors[i]), s.dims, ErrConfigMismatch)
		}
		points = append(points, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{
					Uuid: PointID(chunk.FilePath, chunk.Index),
				},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: vectors[i]},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				payloadFilePath:   {Kind: &qdrantclient.Value_StringValue{StringValue: chunk.FilePath}},
				payloadChunkIndex: {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(chunk.Index)}},
				payloadContent:    {Kind: &qdrantclient.Value_StringValue{StringValue: chunk.Content}},
				payloadLanguage:   {Kind: &qdrantclient.Value_StringValue{StringValue: chunk.Language}},
				payloadIndexedAt:  {Kind: &qdrantclient.Value_StringValue{StringValue: now}},
			},
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	wait := true
	_, err := s.points.Upsert(reqCtx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return s.wrap("upsert points", err)
	}
	return nil
}

// DeleteStale removes every point for relPath with chunk_index >= keepCount.
// Filter-based, so the previous chunk count never needs to be read back.
func (s *QdrantStore) DeleteStale(ctx context.Context, relPath string, keepCount int) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	gte := float64(keepCount)
	filter := &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{
			fieldMatchKeyword(payloadFilePath, relPath),
			{
				ConditionOneOf: &qdrantclient.Condition_Field{
					Field: &qdrantclient.FieldCondition{
						Key:   payloadChunkIndex,
						Range: &qdrantclient.Range{Gte: &gte},
					},
				},
			},
		},
	}

	wait := true
	_, err := s.points.Delete(reqCtx, &qdrantclient.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Filter{Filter: filter},
		},
		Wait: &wait,
	})
	if err != nil {
		return s.wrap("delete stale points", err)
	}
	return nil
}

// Search runs a nearest-neighbour query. The language filter and score
// threshold are applied server-side; the path substring filter is applied
// client-side over an oversampled candidate set.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, params SearchParams) ([]models.SearchResult, error) {
	if uint64(len(vector)) != s.dims {
		return nil, fmt.Errorf("query vector has %d dimensions, collection expects %d: %w",
			len(vector), s.dims, ErrConfigMismatch)
	}

	limit := uint64(params.Limit)
	if params.PathFilter != "" {
		limit *= pathCandidateFactor
	}

	searchReq := &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          limit,
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if params.ScoreThreshold > 0 {
		threshold := params.ScoreThreshold
		searchReq.ScoreThreshold = &threshold
	}
	if params.LanguageFilter != "" {
		searchReq.Filter = &qdrantclient.Filter{
			Must: []*qdrantclient.Condition{
				fieldMatchKeyword(payloadLanguage, params.LanguageFilter),
			},
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.points.Search(reqCtx, searchReq)
	if err != nil {
		return nil, s.wrap("search", err)
	}

	results := make([]models.SearchResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		result := resultFromPayload(point.GetPayload(), point.GetScore())
		if params.PathFilter != "" && !strings.Contains(result.FilePath, params.PathFilter) {
			continue
		}
		results = append(results, result)
	}
	SortResults(results)
	if len(results) > params.Limit {
		results = results[:params.Limit]
	}
	return results, nil
}

// Count returns the collection's point count.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.collections.Get(reqCtx, &qdrantclient.GetCollectionInfoRequest{
		CollectionName: s.collection,
	})
	if err != nil {
		return 0, s.wrap("collection info", err)
	}
	return info.GetResult().GetPointsCount(), nil
}

// Stats scrolls every payload in the collection and aggregates chunk, file
// and language counts.
func (s *QdrantStore) Stats(ctx context.Context) (models.CollectionStats, error) {
	stats := models.CollectionStats{
		CollectionName: s.collection,
		Languages:      map[string]int{},
	}

	size, distance, _, err := s.collectionConfig(ctx)
	if err != nil {
		return stats, err
	}
	stats.VectorSize = size
	stats.Distance = distance.String()

	files := map[string]bool{}
	var offset *qdrantclient.PointId
	pageSize := uint32(256)

	for {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		resp, err := s.points.Scroll(reqCtx, &qdrantclient.ScrollPoints{
			CollectionName: s.collection,
			Limit:          &pageSize,
			Offset:         offset,
			WithPayload: &qdrantclient.WithPayloadSelector{
				SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
					Include: &qdrantclient.PayloadIncludeSelector{
						Fields: []string{payloadFilePath, payloadLanguage},
					},
				},
			},
		})
		cancel()
		if err != nil {
			return stats, s.wrap("scroll", err)
		}

		for _, point := range resp.GetResult() {
			payload := point.GetPayload()
			stats.TotalChunks++
			if v, ok := payload[payloadFilePath]; ok {
				files[v.GetStringValue()] = true
			}
			if v, ok := payload[payloadLanguage]; ok {
				stats.Languages[v.GetStringValue()]++
			}
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	stats.TotalFiles = len(files)
	stats.Healthy = true
	return stats, nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

func (s *QdrantStore) collectionExists(ctx context.Context) (bool, error) {
	collections, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return false, s.wrap("list collections", err)
	}
	for _, col := range collections.GetCollections() {
		if col.GetName() == s.collection {
			return true, nil
		}
	}
	return false, nil
}

func (s *QdrantStore) collectionConfig(ctx context.Context) (uint64, qdrantclient.Distance, uint64, error) {
	info, err := s.collections.Get(ctx, &qdrantclient.GetCollectionInfoRequest{
		CollectionName: s.collection,
	})
	if err != nil {
		return 0, 0, 0, s.wrap("collection info", err)
	}

	result := info.GetResult()
	params := result.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return 0, 0, 0, fmt.Errorf("collection %q has no vector params", s.collection)
	}
	return params.GetSize(), params.GetDistance(), result.GetPointsCount(), nil
}

// wrap classifies transport errors into the package sentinels so callers can
// distinguish "service down" from "collection absent" from real failures.
func (s *QdrantStore) wrap(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%s: %v: %w", op, err, ErrUnavailable)
	case codes.NotFound:
		return fmt.Errorf("%s (collection %q): %v: %w", op, s.collection, err, ErrCollectionMissing)
	}
	if strings.Contains(err.Error(), "doesn't exist") || strings.Contains(err.Error(), "not found") {
		return fmt.Errorf("%s (collection %q): %v: %w", op, s.collection, err, ErrCollectionMissing)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func fieldMatchKeyword(key, value string) *qdrantclient.Condition {
	return &qdrantclient.Condition{
		ConditionOneOf: &qdrantclient.Condition_Field{
			Field: &qdrantclient.FieldCondition{
				Key: key,
				Match: &qdrantclient.Match{
					MatchValue: &qdrantclient.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func resultFromPayload(payload map[string]*qdrantclient.Value, score float32) models.SearchResult {
	result := models.SearchResult{Score: score}
	if v, ok := payload[payloadFilePath]; ok {
		result.FilePath = v.GetStringValue()
	}
	if v, ok := payload[payloadChunkIndex]; ok {
		result.ChunkIndex = int(v.GetIntegerValue())
	}
	if v, ok := payload[payloadContent]; ok {
		result.Content = v.GetStringValue()
	}
	if v, ok := payload[payloadLanguage]; ok {
		result.Language = v.GetStringValue()
	}
	if v, ok := payload[payloadIndexedAt]; ok {
		result.IndexedAt = v.GetStringValue()
	}
	return result
}

// SortResults orders results by descending score with (path, chunk index)
// tie-break for deterministic output.
func SortResults(results []models.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].FilePath != results[j].FilePath {
			return results[i].FilePath < results[j].FilePath
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
}
