package mapper

import (
	"pdf-assistant-be/internal/dto"
	"pdf-assistant-be/internal/entity"
	"pdf-assistant-be/pkg/store"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) DocumentToDTO(h *entity.DocumentHandle) *dto.DocumentDTO {
	if h == nil {
		return nil
	}
	return &dto.DocumentDTO{
		DocumentId: h.DocumentId,
		Filename:   h.Filename,
	}
}

func (m *SessionMapper) TurnToDTO(t *entity.Turn) *dto.TurnDTO {
	if t == nil {
		return nil
	}
	return &dto.TurnDTO{
		Seq:       t.Seq,
		Role:      t.Role,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
	}
}

func (m *SessionMapper) TranscriptToDTO(turns []entity.Turn) []dto.TurnDTO {
	out := make([]dto.TurnDTO, 0, len(turns))
	for i := range turns {
		out = append(out, *m.TurnToDTO(&turns[i]))
	}
	return out
}

// SnapshotToDTO reads the presentation surface of a session. The caller must
// hold the session lock.
func (m *SessionMapper) SnapshotToDTO(s *store.Session) *dto.SessionSnapshotResponse {
	return &dto.SessionSnapshotResponse{
		SessionId:    s.ID,
		Document:     m.DocumentToDTO(s.CurrentDocument()),
		MergePending: s.MergeState() == store.MergeAwaitingDocument,
		Busy:         s.Busy(),
		Transcript:   m.TranscriptToDTO(s.Transcript()),
	}
}
