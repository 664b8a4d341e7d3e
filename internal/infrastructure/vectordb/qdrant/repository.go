// Package qdrant provides a VectorDB implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/infrastructure/config"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// Repository implements the VectorDB interface using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and everything in it.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Save indexes an event with its embedding.
func (r *Repository) Save(ctx context.Context, event entities.Event, embedding []float32) error {
	tags := make([]*pb.Value, 0, len(event.Tags))
	for _, tag := range event.Tags {
		tags = append(tags, &pb.Value{Kind: &pb.Value_StringValue{StringValue: tag}})
	}

	point := &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{
				Uuid: event.ID,
			},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: embedding,
				},
			},
		},
		Payload: map[string]*pb.Value{
			"world_id":      {Kind: &pb.Value_StringValue{StringValue: event.WorldID}},
			"continuity_id": {Kind: &pb.Value_StringValue{StringValue: event.ContinuityID}},
			"campaign_id":   {Kind: &pb.Value_StringValue{StringValue: event.CampaignID}},
			"name":          {Kind: &pb.Value_StringValue{StringValue: event.Name}},
			"description":   {Kind: &pb.Value_StringValue{StringValue: event.Description}},
			"secrets":       {Kind: &pb.Value_StringValue{StringValue: event.Secrets}},
			"tags":          {Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: tags}}},
			"outcomes":      {Kind: &pb.Value_StringValue{StringValue: event.Outcomes}},
			"in_world_time": {Kind: &pb.Value_StringValue{StringValue: event.InWorldTime}},
			"created_at":    {Kind: &pb.Value_StringValue{StringValue: event.CreatedAt.Format(timeFormat)}},
			"modified_at":   {Kind: &pb.Value_StringValue{StringValue: event.ModifiedAt.Format(timeFormat)}},
		},
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         []*pb.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}

	return nil
}

// Search performs a semantic search and returns similar events.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]entities.Event, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	events := make([]entities.Event, 0, len(resp.Result))
	for _, point := range resp.Result {
		events = append(events, scoredPointToEvent(point))
	}
	return events, nil
}

// Delete removes an event from the index by its ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: id}},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting point: %w", err)
	}

	return nil
}

// Count returns the total number of indexed events.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}

	if resp.Result.PointsCount == nil {
		return 0, nil
	}

	return *resp.Result.PointsCount, nil
}

// scoredPointToEvent converts a Qdrant search hit to an Event entity.
func scoredPointToEvent(point *pb.ScoredPoint) entities.Event {
	payload := point.Payload

	event := entities.Event{
		ID:           point.Id.GetUuid(),
		WorldID:      payloadString(payload, "world_id"),
		ContinuityID: payloadString(payload, "continuity_id"),
		CampaignID:   payloadString(payload, "campaign_id"),
		Name:         payloadString(payload, "name"),
		Description:  payloadString(payload, "description"),
		Secrets:      payloadString(payload, "secrets"),
		Outcomes:     payloadString(payload, "outcomes"),
		InWorldTime:  payloadString(payload, "in_world_time"),
	}

	if list := payload["tags"].GetListValue(); list != nil {
		for _, v := range list.Values {
			if tag := v.GetStringValue(); tag != "" {
				event.Tags = append(event.Tags, tag)
			}
		}
	}

	event.CreatedAt = payloadTime(payload, "created_at")
	event.ModifiedAt = payloadTime(payload, "modified_at")

	return event
}

// payloadString extracts a string value from a point payload.
func payloadString(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

// payloadTime extracts a timestamp from a point payload.
func payloadTime(payload map[string]*pb.Value, key string) time.Time {
	t, err := time.Parse(timeFormat, payloadString(payload, key))
	if err != nil {
		return time.Time{}
	}
	return t
}
