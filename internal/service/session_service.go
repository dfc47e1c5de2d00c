package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"pdf-assistant-be/internal/constant"
	"pdf-assistant-be/internal/dto"
	"pdf-assistant-be/internal/entity"
	"pdf-assistant-be/internal/mapper"
	"pdf-assistant-be/internal/pkg/logger"
	"pdf-assistant-be/internal/repository/memory"
	"pdf-assistant-be/pkg/pdfengine"
	"pdf-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// ISessionService is the core session controller: it owns the dispatch cycle,
// the merge sub-workflow, and all mutation of session state.
type ISessionService interface {
	StartSession(ctx context.Context, filename, contentType string, file io.Reader) (*dto.StartSessionResponse, error)
	Dispatch(ctx context.Context, sessionID string, req *dto.DispatchRequest) (*dto.DispatchResponse, error)
	SubmitMergeDocument(ctx context.Context, sessionID, filename, contentType string, file io.Reader) (*dto.SubmitMergeResponse, error)
	CancelMerge(ctx context.Context, sessionID string) (*dto.CancelMergeResponse, error)
	Snapshot(ctx context.Context, sessionID string) (*dto.SessionSnapshotResponse, error)
	OpenDocument(ctx context.Context, sessionID string) (io.ReadCloser, string, error)
}

// ISessionEvents pushes state changes to connected presentation clients. A nil
// payload is never sent; implementations must not block.
type ISessionEvents interface {
	Publish(sessionID, event string, payload interface{})
}

const (
	EventTurnAppended      = "turn_appended"
	EventDocumentChanged   = "document_changed"
	EventMergeStateChanged = "merge_state_changed"
)

type sessionService struct {
	sessionRepo *memory.SessionRepository
	engine      *pdfengine.Client
	events      ISessionEvents
	mapper      *mapper.SessionMapper
	logger      logger.ILogger
}

func NewSessionService(
	sessionRepo *memory.SessionRepository,
	engine *pdfengine.Client,
	events ISessionEvents,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		engine:      engine,
		events:      events,
		mapper:      mapper.NewSessionMapper(),
		logger:      log,
	}
}

// StartSession uploads the first document and creates the session around it.
// The returned transcript already contains the assistant welcome turn.
func (s *sessionService) StartSession(ctx context.Context, filename, contentType string, file io.Reader) (*dto.StartSessionResponse, error) {
	if err := validatePDF(filename, contentType); err != nil {
		return nil, err
	}

	uploaded, err := s.engine.Upload(ctx, filename, file)
	if err != nil {
		s.logger.Error("SessionService", "Engine upload failed", map[string]interface{}{"error": err.Error(), "filename": filename})
		return nil, fmt.Errorf("upload document: %w", err)
	}

	displayName := uploaded.Filename
	if displayName == "" {
		displayName = filename
	}

	sess := store.NewSession(uuid.New().String())
	sess.SetCurrentDocument(entity.DocumentHandle{
		DocumentId: uploaded.FileId,
		Filename:   displayName,
		CreatedAt:  sess.CreatedAt,
	})
	welcome := sess.AppendTurn(entity.RoleAssistant, fmt.Sprintf(constant.AssistantWelcomeTemplate, displayName))
	s.sessionRepo.Save(sess)

	s.logger.Info("SessionService", "Session started", map[string]interface{}{"session_id": sess.ID, "document_id": uploaded.FileId})

	return &dto.StartSessionResponse{
		SessionId:  sess.ID,
		Document:   s.mapper.DocumentToDTO(sess.CurrentDocument()),
		Transcript: []dto.TurnDTO{*s.mapper.TurnToDTO(&welcome)},
	}, nil
}

// Dispatch runs one command cycle: precondition checks, user turn, remote
// call, classification, state application, assistant turn. It always appends
// exactly one assistant turn once the user turn is in, whatever the outcome.
func (s *sessionService) Dispatch(ctx context.Context, sessionID string, req *dto.DispatchRequest) (*dto.DispatchResponse, error) {
	sess, ok := s.sessionRepo.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.Lock()
	if sess.Busy() {
		sess.Unlock()
		return nil, ErrBusy
	}
	if sess.MergeState() == store.MergeAwaitingDocument {
		sess.Unlock()
		return nil, ErrMergePending
	}
	current := sess.CurrentDocument()
	if current == nil {
		sess.Unlock()
		return nil, ErrNoDocument
	}
	sent := sess.AppendTurn(entity.RoleUser, req.Utterance)
	sess.SetBusy(true)
	sess.Unlock()

	s.events.Publish(sessionID, EventTurnAppended, s.mapper.TurnToDTO(&sent))

	resp, err := s.engine.ExecuteCommand(ctx, current.DocumentId, req.Utterance)

	sess.Lock()
	defer sess.Unlock()
	sess.SetBusy(false)

	if err != nil {
		s.logger.Error("SessionService", "Engine command failed", map[string]interface{}{"error": err.Error(), "session_id": sessionID})
		reply := s.appendAssistantTurn(sess, constant.AssistantDispatchFailed)
		return &dto.DispatchResponse{
			Sent:     s.mapper.TurnToDTO(&sent),
			Reply:    s.mapper.TurnToDTO(&reply),
			Result:   pdfengine.ResultFailure,
			Document: s.mapper.DocumentToDTO(sess.CurrentDocument()),
		}, nil
	}

	result := resp.Classify(*current)
	content := result.Message

	switch result.Kind {
	case pdfengine.ResultNeedsInput:
		sess.EnterMergeWait(*current)
		s.events.Publish(sessionID, EventMergeStateChanged, sess.MergeState())

	case pdfengine.ResultMutation:
		sess.SetCurrentDocument(*result.Document)
		s.events.Publish(sessionID, EventDocumentChanged, s.mapper.DocumentToDTO(result.Document))

	case pdfengine.ResultArtifact:
		// The turn must carry the retrieval locator; the engine usually bakes
		// it into the message already.
		if result.DownloadURL != "" && !strings.Contains(content, result.DownloadURL) {
			content = content + "\nDownload: " + result.DownloadURL
		}
	}

	reply := s.appendAssistantTurn(sess, content)

	return &dto.DispatchResponse{
		Sent:         s.mapper.TurnToDTO(&sent),
		Reply:        s.mapper.TurnToDTO(&reply),
		Result:       result.Kind,
		Document:     s.mapper.DocumentToDTO(sess.CurrentDocument()),
		MergePending: sess.MergeState() == store.MergeAwaitingDocument,
		DownloadURL:  result.DownloadURL,
	}, nil
}

// SubmitMergeDocument completes a pending merge with the supplementary file.
// Non-PDF input fails locally and leaves the merge pending so the user can
// offer another file; a remote failure clears it, the user must re-issue the
// command.
func (s *sessionService) SubmitMergeDocument(ctx context.Context, sessionID, filename, contentType string, file io.Reader) (*dto.SubmitMergeResponse, error) {
	sess, ok := s.sessionRepo.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.Lock()
	if sess.Busy() {
		sess.Unlock()
		return nil, ErrBusy
	}
	if sess.MergeState() != store.MergeAwaitingDocument {
		sess.Unlock()
		return nil, ErrNoMergePending
	}
	if err := validatePDF(filename, contentType); err != nil {
		sess.Unlock()
		return nil, err
	}
	current := sess.CurrentDocument()
	sent := sess.AppendTurn(entity.RoleUser, fmt.Sprintf("Uploaded %q for merging.", filename))
	sess.SetBusy(true)
	sess.Unlock()

	s.events.Publish(sessionID, EventTurnAppended, s.mapper.TurnToDTO(&sent))

	resp, err := s.engine.Merge(ctx, current.DocumentId, filename, file)

	sess.Lock()
	defer sess.Unlock()
	sess.SetBusy(false)
	sess.LeaveMergeWait()
	s.events.Publish(sessionID, EventMergeStateChanged, sess.MergeState())

	if err != nil {
		s.logger.Error("SessionService", "Engine merge failed", map[string]interface{}{"error": err.Error(), "session_id": sessionID})
		reply := s.appendAssistantTurn(sess, constant.AssistantMergeFailed)
		return &dto.SubmitMergeResponse{
			Reply:    s.mapper.TurnToDTO(&reply),
			Document: s.mapper.DocumentToDTO(sess.CurrentDocument()),
			Merged:   false,
		}, nil
	}

	result := resp.Classify(*current)
	if result.Kind == pdfengine.ResultMutation {
		sess.SetCurrentDocument(*result.Document)
		s.events.Publish(sessionID, EventDocumentChanged, s.mapper.DocumentToDTO(result.Document))
	}
	reply := s.appendAssistantTurn(sess, result.Message)

	return &dto.SubmitMergeResponse{
		Reply:    s.mapper.TurnToDTO(&reply),
		Document: s.mapper.DocumentToDTO(sess.CurrentDocument()),
		Merged:   result.Kind == pdfengine.ResultMutation,
	}, nil
}

// CancelMerge abandons a pending merge. Purely local: no request has been sent
// yet at this point. Calling it with nothing pending is a no-op.
func (s *sessionService) CancelMerge(ctx context.Context, sessionID string) (*dto.CancelMergeResponse, error) {
	sess, ok := s.sessionRepo.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.Busy() {
		return nil, ErrBusy
	}
	if sess.MergeState() != store.MergeAwaitingDocument {
		return &dto.CancelMergeResponse{MergePending: false}, nil
	}

	sess.LeaveMergeWait()
	reply := s.appendAssistantTurn(sess, constant.AssistantMergeCancelled)
	s.events.Publish(sessionID, EventMergeStateChanged, sess.MergeState())

	return &dto.CancelMergeResponse{
		Reply:        s.mapper.TurnToDTO(&reply),
		MergePending: false,
	}, nil
}

func (s *sessionService) Snapshot(ctx context.Context, sessionID string) (*dto.SessionSnapshotResponse, error) {
	sess, ok := s.sessionRepo.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.Lock()
	defer sess.Unlock()
	return s.mapper.SnapshotToDTO(sess), nil
}

// OpenDocument streams the current document revision from the engine for the
// preview pane. The caller closes the reader.
func (s *sessionService) OpenDocument(ctx context.Context, sessionID string) (io.ReadCloser, string, error) {
	sess, ok := s.sessionRepo.Get(sessionID)
	if !ok {
		return nil, "", ErrSessionNotFound
	}

	sess.Lock()
	current := sess.CurrentDocument()
	sess.Unlock()

	if current == nil {
		return nil, "", ErrNoDocument
	}
	return s.engine.FetchDocument(ctx, current.DocumentId)
}

// appendAssistantTurn appends and publishes in one step. Caller holds the
// session lock.
func (s *sessionService) appendAssistantTurn(sess *store.Session, content string) entity.Turn {
	turn := sess.AppendTurn(entity.RoleAssistant, content)
	s.events.Publish(sess.ID, EventTurnAppended, s.mapper.TurnToDTO(&turn))
	return turn
}

func validatePDF(filename, contentType string) error {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil
	}
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return nil
	}
	return ErrNotPDF
}
