package repository

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const defaultFaceDimension = 512

// FaceIndexConfig holds the Qdrant connection settings for the face index.
type FaceIndexConfig struct {
	Host       string
	Port       int
	Collection string
	APIKey     string // Qdrant Cloud API key (enables TLS automatically)
	UseTLS     bool
	Dimension  int
}

// FaceIndex mirrors visitor embeddings into a Qdrant collection so galleries
// too large for the linear scan can still answer verifications quickly. The
// JSON file store remains the durable source of truth; the index is rebuilt
// from it by re-upserting on every registration.
type FaceIndex struct {
	conn          *grpc.ClientConn
	pointsClient  pb.PointsClient
	collectClient pb.CollectionsClient
	collection    string
	dimension     int
}

// apiKeyInterceptor adds the Qdrant API key to outgoing metadata.
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// NewFaceIndex connects to Qdrant, locally (insecure) or in the cloud
// (TLS + API key).
func NewFaceIndex(cfg *FaceIndexConfig) (*FaceIndex, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = defaultFaceDimension
	}

	var opts []grpc.DialOption
	useTLS := cfg.UseTLS || cfg.APIKey != ""
	if useTLS {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &FaceIndex{
		conn:          conn,
		pointsClient:  pb.NewPointsClient(conn),
		collectClient: pb.NewCollectionsClient(conn),
		collection:    cfg.Collection,
		dimension:     dimension,
	}, nil
}

// Close closes the gRPC connection.
func (x *FaceIndex) Close() error {
	return x.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist.
func (x *FaceIndex) EnsureCollection(ctx context.Context) error {
	_, err := x.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: x.collection,
	})
	if err == nil {
		return nil
	}

	_, err = x.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(x.dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// pointID derives a stable UUID from the visitor identifier so that
// re-registration overwrites the same point.
func pointID(visitorID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(visitorID)).String()
}

// Upsert inserts or replaces the embedding for a visitor.
func (x *FaceIndex) Upsert(ctx context.Context, visitorID string, embedding []float64) error {
	vector := make([]float32, len(embedding))
	for i, v := range embedding {
		vector[i] = float32(v)
	}

	points := []*pb.PointStruct{
		{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(visitorID)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vector},
				},
			},
			Payload: map[string]*pb.Value{
				"visitor_id": {Kind: &pb.Value_StringValue{StringValue: visitorID}},
			},
		},
	}

	_, err := x.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: x.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Search returns the closest enrolled visitor and its cosine score.
// An empty collection reports ("", 0).
func (x *FaceIndex) Search(ctx context.Context, embedding []float64) (string, float64, error) {
	vector := make([]float32, len(embedding))
	for i, v := range embedding {
		vector[i] = float32(v)
	}

	resp, err := x.pointsClient.Search(ctx, &pb.SearchPoints{
		CollectionName: x.collection,
		Vector:         vector,
		Limit:          1,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to search: %w", err)
	}
	if len(resp.Result) == 0 {
		return "", 0, nil
	}

	best := resp.Result[0]
	visitorID := ""
	if v, ok := best.Payload["visitor_id"]; ok {
		visitorID = v.GetStringValue()
	}
	return visitorID, float64(best.Score), nil
}
