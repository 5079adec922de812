package face

import (
	"context"
	"errors"
	"strings"

	"github.com/jmpark/foyer/internal/domain"
	"github.com/jmpark/foyer/internal/imaging"
	"github.com/jmpark/foyer/internal/logger"
)

// ErrNoFace reports that the extractor found no face in the frame. It is a
// structured outcome, not a server fault: the gate keeps serving.
var ErrNoFace = errors.New("no face detected")

// Index is the optional ANN face index. Implemented by repository.FaceIndex.
type Index interface {
	Upsert(ctx context.Context, visitorID string, embedding []float64) error
	Search(ctx context.Context, embedding []float64) (string, float64, error)
}

// EventRecorder receives audit events. Implemented by repository.EventRepository.
type EventRecorder interface {
	Create(ctx context.Context, event *domain.RecognitionEvent) error
}

// EventCounter is implemented by recorders that can also report totals.
type EventCounter interface {
	CountByKind(ctx context.Context, kind domain.EventKind) (int64, error)
}

// ServiceConfig holds the decision threshold and the image pipeline options.
type ServiceConfig struct {
	SimilarityThreshold float64
	Image               imaging.Options
}

// Service orchestrates the gate: normalize frame, extract embedding, match
// or enroll against the gallery. The extractor, capture sink, audit
// recorder, and index are injected capabilities so tests run with stubs.
type Service struct {
	store     *Store
	extractor Extractor
	sink      imaging.CaptureSink
	events    EventRecorder
	index     Index
	log       *logger.Logger

	threshold float64
	imgOpts   imaging.Options
}

// NewService creates the face gate service. events and index may be nil.
func NewService(
	store *Store,
	extractor Extractor,
	sink imaging.CaptureSink,
	events EventRecorder,
	index Index,
	log *logger.Logger,
	cfg *ServiceConfig,
) *Service {
	if sink == nil {
		sink = imaging.NopSink{}
	}
	return &Service{
		store:     store,
		extractor: extractor,
		sink:      sink,
		events:    events,
		index:     index,
		log:       log,
		threshold: cfg.SimilarityThreshold,
		imgOpts:   cfg.Image,
	}
}

// Threshold returns the active match decision threshold.
func (s *Service) Threshold() float64 { return s.threshold }

// ImageOptions returns the active normalization options.
func (s *Service) ImageOptions() imaging.Options { return s.imgOpts }

// VisitorCount returns the number of enrolled visitors.
func (s *Service) VisitorCount() int { return s.store.Count() }

// AuditCounts reports total register and verify events, when the audit
// recorder supports counting. ok is false otherwise.
func (s *Service) AuditCounts(ctx context.Context) (registers, verifies int64, ok bool) {
	counter, can := s.events.(EventCounter)
	if !can {
		return 0, 0, false
	}
	registers, err := counter.CountByKind(ctx, domain.EventRegister)
	if err != nil {
		s.log.WithError(err).Debug("audit count unavailable")
		return 0, 0, false
	}
	verifies, err = counter.CountByKind(ctx, domain.EventVerify)
	if err != nil {
		s.log.WithError(err).Debug("audit count unavailable")
		return 0, 0, false
	}
	return registers, verifies, true
}

// NormalizeVisitorID maps a client-supplied token onto the canonical
// visitor_<token> identifier.
func NormalizeVisitorID(token string) string {
	if token == "" {
		token = "unknown"
	}
	if strings.HasPrefix(token, "visitor_") {
		return token
	}
	return "visitor_" + token
}

// RegisterResult is the outcome of a successful enrollment.
type RegisterResult struct {
	VisitorID string
}

// Register enrolls a visitor: the largest face found in the frame becomes
// their stored embedding, overwriting any prior enrollment.
func (s *Service) Register(ctx context.Context, raw []byte, width, height int, token string) (*RegisterResult, error) {
	vid := NormalizeVisitorID(token)
	log := s.log.WithField(logger.FieldVisitorID, vid)

	img, err := imaging.Normalize(raw, width, height, s.imgOpts)
	if err != nil {
		return nil, err
	}

	// Every attempted frame is kept, recognized or not.
	s.sink.Save(ctx, "register", vid, img)

	faces, err := s.extractor.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		log.Info("register: no face")
		s.audit(ctx, domain.EventRegister, vid, false, 0, false)
		return nil, ErrNoFace
	}

	best := LargestFace(faces)
	if err := s.store.Upsert(vid, best.Embedding); err != nil {
		// In-memory gallery is updated even when the disk write failed;
		// the gate stays usable for this process lifetime.
		log.WithError(err).Warn("register: gallery persisted in memory only")
	}

	if s.index != nil {
		if err := s.index.Upsert(ctx, vid, best.Embedding); err != nil {
			log.WithError(err).Warn("register: face index upsert failed")
		}
	}

	s.audit(ctx, domain.EventRegister, vid, true, 0, true)
	log.Info("registered")
	return &RegisterResult{VisitorID: vid}, nil
}

// VerifyResult is the outcome of a verification with a detected face.
type VerifyResult struct {
	VisitorID  string
	Registered bool
	Similarity float64
}

// Verify matches the largest face in the frame against the gallery and
// reports the visitor only when the score clears the threshold.
func (s *Service) Verify(ctx context.Context, raw []byte, width, height int) (*VerifyResult, error) {
	img, err := imaging.Normalize(raw, width, height, s.imgOpts)
	if err != nil {
		return nil, err
	}

	faces, err := s.extractor.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		s.sink.Save(ctx, "verify", "noface", img)
		s.audit(ctx, domain.EventVerify, "", false, 0, false)
		return nil, ErrNoFace
	}

	best := LargestFace(faces)

	var vid string
	var sim float64
	if s.index != nil {
		vid, sim, err = s.index.Search(ctx, best.Embedding)
		if err != nil {
			s.log.WithError(err).Warn("verify: face index search failed, falling back to scan")
			vid, sim = s.store.Match(best.Embedding)
		}
	} else {
		vid, sim = s.store.Match(best.Embedding)
	}

	matched := sim > s.threshold
	tag := "unknown"
	if matched {
		tag = vid + "_ok"
	}
	s.sink.Save(ctx, "verify", tag, img)

	result := &VerifyResult{Similarity: sim}
	if matched {
		result.VisitorID = vid
		result.Registered = true
		s.log.WithFields(logger.Fields{
			logger.FieldVisitorID:  vid,
			logger.FieldSimilarity: sim,
		}).Info("verified")
	} else {
		s.log.WithField(logger.FieldSimilarity, sim).Info("unknown visitor")
	}
	s.audit(ctx, domain.EventVerify, result.VisitorID, matched, sim, true)
	return result, nil
}

// audit records the outcome best-effort; a dead audit DB never blocks the gate.
func (s *Service) audit(ctx context.Context, kind domain.EventKind, vid string, matched bool, sim float64, faceFound bool) {
	if s.events == nil {
		return
	}
	event := &domain.RecognitionEvent{
		Kind:       kind,
		VisitorID:  vid,
		Matched:    matched,
		Similarity: sim,
		FaceFound:  faceFound,
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.log.WithError(err).Debug("audit event not recorded")
	}
}
