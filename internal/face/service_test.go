package face

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmpark/foyer/internal/domain"
	"github.com/jmpark/foyer/internal/imaging"
)

// stubExtractor returns a fixed detection list for every frame.
type stubExtractor struct {
	faces []Detection
	err   error
}

func (s *stubExtractor) Extract(ctx context.Context, img *imaging.Image) ([]Detection, error) {
	return s.faces, s.err
}

// recordingSink remembers every saved capture tag.
type recordingSink struct {
	tags []string
}

func (s *recordingSink) Save(ctx context.Context, mode, tag string, img *imaging.Image) {
	s.tags = append(s.tags, mode+"/"+tag)
}

// recordingEvents remembers every audit event.
type recordingEvents struct {
	events []*domain.RecognitionEvent
}

func (r *recordingEvents) Create(ctx context.Context, e *domain.RecognitionEvent) error {
	r.events = append(r.events, e)
	return nil
}

func testFrame() ([]byte, int, int) {
	return make([]byte, 2*2*3), 2, 2
}

func newTestService(t *testing.T, ext Extractor, sink imaging.CaptureSink, events EventRecorder) *Service {
	t.Helper()
	store := OpenStore(filepath.Join(t.TempDir(), "face_db.json"), testLogger())
	return NewService(store, ext, sink, events, nil, testLogger(), &ServiceConfig{
		SimilarityThreshold: 0.5,
		Image: imaging.Options{
			TargetSize: 2,
			Gamma:      1.0,
			Contrast:   1.0,
		},
	})
}

func TestNormalizeVisitorID(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "visitor_unknown"},
		{"alice", "visitor_alice"},
		{"visitor_alice", "visitor_alice"},
	}
	for _, tt := range tests {
		if got := NormalizeVisitorID(tt.token); got != tt.want {
			t.Errorf("NormalizeVisitorID(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestRegisterAndVerify(t *testing.T) {
	emb := []float64{1, 0, 0}
	ext := &stubExtractor{faces: []Detection{{Box: [4]float64{0, 0, 10, 10}, Embedding: emb}}}
	events := &recordingEvents{}
	svc := newTestService(t, ext, nil, events)
	raw, w, h := testFrame()

	reg, err := svc.Register(context.Background(), raw, w, h, "alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.VisitorID != "visitor_alice" {
		t.Errorf("got visitor %q, want visitor_alice", reg.VisitorID)
	}
	if svc.VisitorCount() != 1 {
		t.Errorf("got %d visitors, want 1", svc.VisitorCount())
	}

	res, err := svc.Verify(context.Background(), raw, w, h)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.Registered || res.VisitorID != "visitor_alice" {
		t.Errorf("got %+v, want registered visitor_alice", res)
	}
	if res.Similarity < 0.999 {
		t.Errorf("got similarity %v, want ~1.0", res.Similarity)
	}

	if len(events.events) != 2 {
		t.Fatalf("got %d audit events, want 2", len(events.events))
	}
	if events.events[0].Kind != domain.EventRegister || events.events[1].Kind != domain.EventVerify {
		t.Errorf("audit kinds: %v, %v", events.events[0].Kind, events.events[1].Kind)
	}
	if !events.events[1].Matched {
		t.Error("verify audit event must record a match")
	}
}

func TestRegisterNoFace(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, nil, nil)
	raw, w, h := testFrame()

	_, err := svc.Register(context.Background(), raw, w, h, "alice")
	if !errors.Is(err, ErrNoFace) {
		t.Errorf("got %v, want ErrNoFace", err)
	}
	if svc.VisitorCount() != 0 {
		t.Error("failed registration must not enroll anyone")
	}
}

func TestRegisterPicksLargestFace(t *testing.T) {
	// Two faces in frame: the larger one (a bystander filling the frame
	// loses to whoever stands closest) becomes the enrollment.
	ext := &stubExtractor{faces: []Detection{
		{Box: [4]float64{0, 0, 5, 5}, Embedding: []float64{0, 1}},
		{Box: [4]float64{0, 0, 50, 50}, Embedding: []float64{1, 0}},
	}}
	svc := newTestService(t, ext, nil, nil)
	raw, w, h := testFrame()

	if _, err := svc.Register(context.Background(), raw, w, h, "alice"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	emb, ok := svc.store.Get("visitor_alice")
	if !ok {
		t.Fatal("visitor_alice not enrolled")
	}
	if emb[0] != 1 || emb[1] != 0 {
		t.Errorf("stored %v, want the larger face's embedding", emb)
	}
}

func TestVerifyBelowThreshold(t *testing.T) {
	ext := &stubExtractor{faces: []Detection{{Box: [4]float64{0, 0, 10, 10}, Embedding: []float64{1, 0}}}}
	sink := &recordingSink{}
	svc := newTestService(t, ext, sink, nil)
	raw, w, h := testFrame()

	// Enroll an orthogonal embedding: similarity 0 < 0.5.
	if err := svc.store.Upsert("visitor_bob", []float64{0, 1}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Verify(context.Background(), raw, w, h)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Registered || res.VisitorID != "" {
		t.Errorf("got %+v, want unmatched", res)
	}

	if len(sink.tags) != 1 || sink.tags[0] != "verify/unknown" {
		t.Errorf("capture tags: %v, want [verify/unknown]", sink.tags)
	}
}

func TestVerifyNoFaceCapturesFrame(t *testing.T) {
	sink := &recordingSink{}
	events := &recordingEvents{}
	svc := newTestService(t, &stubExtractor{}, sink, events)
	raw, w, h := testFrame()

	_, err := svc.Verify(context.Background(), raw, w, h)
	if !errors.Is(err, ErrNoFace) {
		t.Fatalf("got %v, want ErrNoFace", err)
	}
	if len(sink.tags) != 1 || sink.tags[0] != "verify/noface" {
		t.Errorf("capture tags: %v, want [verify/noface]", sink.tags)
	}
	if len(events.events) != 1 || events.events[0].FaceFound {
		t.Errorf("audit: %+v, want one face_found=false event", events.events)
	}
}

func TestVerifyEmptyGallery(t *testing.T) {
	ext := &stubExtractor{faces: []Detection{{Box: [4]float64{0, 0, 10, 10}, Embedding: []float64{1, 0}}}}
	svc := newTestService(t, ext, nil, nil)
	raw, w, h := testFrame()

	res, err := svc.Verify(context.Background(), raw, w, h)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Registered || res.Similarity != 0.0 {
		t.Errorf("empty gallery: got %+v, want unmatched with similarity 0", res)
	}
}

func TestVerifyExtractorError(t *testing.T) {
	svc := newTestService(t, &stubExtractor{err: errors.New("sidecar down")}, nil, nil)
	raw, w, h := testFrame()

	if _, err := svc.Verify(context.Background(), raw, w, h); err == nil {
		t.Error("extractor failure must propagate")
	}
}

// countingEvents also reports totals, like the gorm-backed repository.
type countingEvents struct {
	recordingEvents
}

func (c *countingEvents) CountByKind(ctx context.Context, kind domain.EventKind) (int64, error) {
	var n int64
	for _, e := range c.events {
		if e.Kind == kind {
			n++
		}
	}
	return n, nil
}

func TestAuditCounts(t *testing.T) {
	emb := []float64{1, 0}
	ext := &stubExtractor{faces: []Detection{{Box: [4]float64{0, 0, 10, 10}, Embedding: emb}}}
	events := &countingEvents{}
	svc := newTestService(t, ext, nil, events)
	raw, w, h := testFrame()

	if _, err := svc.Register(context.Background(), raw, w, h, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Verify(context.Background(), raw, w, h); err != nil {
		t.Fatal(err)
	}

	registers, verifies, ok := svc.AuditCounts(context.Background())
	if !ok {
		t.Fatal("counter-capable recorder must report counts")
	}
	if registers != 1 || verifies != 1 {
		t.Errorf("got %d registers, %d verifies", registers, verifies)
	}
}

func TestAuditCountsUnsupported(t *testing.T) {
	svc := newTestService(t, &stubExtractor{}, nil, &recordingEvents{})
	if _, _, ok := svc.AuditCounts(context.Background()); ok {
		t.Error("create-only recorder must not report counts")
	}

	svc = newTestService(t, &stubExtractor{}, nil, nil)
	if _, _, ok := svc.AuditCounts(context.Background()); ok {
		t.Error("nil recorder must not report counts")
	}
}

func TestLargestFaceFirstMaxWins(t *testing.T) {
	faces := []Detection{
		{Box: [4]float64{0, 0, 10, 10}, Embedding: []float64{1}},
		{Box: [4]float64{0, 0, 10, 10}, Embedding: []float64{2}},
	}
	best := LargestFace(faces)
	if best.Embedding[0] != 1 {
		t.Error("ties must keep the first detection")
	}
	if LargestFace(nil) != nil {
		t.Error("empty slice must yield nil")
	}
}
