package vectorstore

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/rag-engine/ragctl/internal/domain"
	"github.com/rag-engine/ragctl/internal/errors"
)

// QdrantCollection implements Collection against a Qdrant server, storing
// the chunk's source/file_type/chunk_id/page/section as payload fields so
// filtered get/query/delete can be expressed as Qdrant match conditions.
type QdrantCollection struct {
	client *qdrant.Client
	name   string
}

// NewQdrant dials a Qdrant server over gRPC. An http(s) URL on Qdrant's
// default HTTP port 6333 is mapped to its gRPC port 6334; any other port
// is used as given, and a URL without a port dials 6334.
func NewQdrant(url, collection string) (*QdrantCollection, error) {
	host := "localhost"
	port := 6334

	clean := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	if h, p, err := net.SplitHostPort(clean); err == nil {
		host = h
		if pi, err := strconv.Atoi(p); err == nil {
			if pi == 6333 {
				port = 6334
			} else {
				port = pi
			}
		}
	} else if clean != "" {
		host = clean
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, errors.VectorStoreError(err)
	}
	return &QdrantCollection{client: client, name: collection}, nil
}

var _ Collection = (*QdrantCollection)(nil)

func (c *QdrantCollection) Create(ctx context.Context, dim int) error {
	exists, err := c.client.CollectionExists(ctx, c.name)
	if err != nil {
		return errors.VectorStoreError(err)
	}
	if exists {
		if err := c.client.DeleteCollection(ctx, c.name); err != nil {
			return errors.VectorStoreError(err)
		}
	}
	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return errors.VectorStoreError(err)
	}
	return nil
}

func (c *QdrantCollection) Delete(ctx context.Context) error {
	if err := c.client.DeleteCollection(ctx, c.name); err != nil {
		return errors.VectorStoreError(err)
	}
	return nil
}

func (c *QdrantCollection) GetOrCreate(ctx context.Context, dim int) error {
	exists, err := c.client.CollectionExists(ctx, c.name)
	if err != nil {
		return errors.VectorStoreError(err)
	}
	if exists {
		return nil
	}
	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return errors.VectorStoreError(err)
	}
	return nil
}

func filterToConditions(filter domain.Filter) []*qdrant.Condition {
	var conds []*qdrant.Condition
	if filter.Source != "" {
		conds = append(conds, qdrant.NewMatch("source", filter.Source))
	}
	if filter.SourcePrefix != "" {
		conds = append(conds, qdrant.NewMatchText("source", filter.SourcePrefix))
	}
	if filter.FileType != "" {
		conds = append(conds, qdrant.NewMatch("file_type", filter.FileType))
	}
	return conds
}

func (c *QdrantCollection) Get(ctx context.Context, filter domain.Filter) ([]string, []string, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: c.name,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if conds := filterToConditions(filter); len(conds) > 0 {
		req.Filter = &qdrant.Filter{Must: conds}
	}
	points, err := c.client.Scroll(ctx, req)
	if err != nil {
		return nil, nil, errors.VectorStoreError(err)
	}
	ids := make([]string, len(points))
	docs := make([]string, len(points))
	for i, p := range points {
		ids[i] = idString(p.Id)
		docs[i] = p.Payload["document"].GetStringValue()
	}
	return ids, docs, nil
}

func (c *QdrantCollection) Query(ctx context.Context, embedding []float32, n int, filter domain.Filter) ([]string, []string, error) {
	req := &qdrant.QueryPoints{
		CollectionName: c.name,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(n)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if conds := filterToConditions(filter); len(conds) > 0 {
		req.Filter = &qdrant.Filter{Must: conds}
	}
	points, err := c.client.Query(ctx, req)
	if err != nil {
		return nil, nil, errors.VectorStoreError(err)
	}
	ids := make([]string, len(points))
	docs := make([]string, len(points))
	for i, p := range points {
		ids[i] = idString(p.Id)
		docs[i] = p.Payload["document"].GetStringValue()
	}
	return ids, docs, nil
}

func (c *QdrantCollection) Add(ctx context.Context, records []Record) error {
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		payload := qdrant.NewValueMap(map[string]any{
			"document":  r.Document,
			"source":    r.Source,
			"file_type": r.FileType,
			"chunk_id":  float64(r.ChunkID),
			"page":      float64(r.Page),
			"section":   r.Section,
		})
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ID),
			Vectors: qdrant.NewVectors(r.Embedding...),
			Payload: payload,
		}
	}
	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: c.name, Points: points})
	if err != nil {
		return errors.VectorStoreError(err)
	}
	return nil
}

func (c *QdrantCollection) DeleteByFilter(ctx context.Context, filter domain.Filter) error {
	conds := filterToConditions(filter)
	if len(conds) == 0 {
		return nil
	}
	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.name,
		Points:         qdrant.NewPointsSelectorFilter(&qdrant.Filter{Must: conds}),
	})
	if err != nil {
		return errors.VectorStoreError(err)
	}
	return nil
}

func (c *QdrantCollection) Count(ctx context.Context) (int, error) {
	n, err := c.client.Count(ctx, &qdrant.CountPoints{CollectionName: c.name})
	if err != nil {
		return 0, errors.VectorStoreError(err)
	}
	return int(n), nil
}

func idString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}
