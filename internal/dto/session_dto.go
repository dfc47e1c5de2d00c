package dto

import "time"

type DocumentDTO struct {
	DocumentId string `json:"document_id"`
	Filename   string `json:"filename"`
}

type TurnDTO struct {
	Seq       uint64    `json:"seq"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type StartSessionResponse struct {
	SessionId  string       `json:"session_id"`
	Document   *DocumentDTO `json:"document"`
	Transcript []TurnDTO    `json:"transcript"`
}

type DispatchRequest struct {
	Utterance string `json:"utterance" validate:"required"`
}

// DispatchResponse reports both turns produced by one dispatch cycle plus the
// state the session landed in. DownloadURL is set only for artifact results.
type DispatchResponse struct {
	Sent         *TurnDTO     `json:"sent"`
	Reply        *TurnDTO     `json:"reply"`
	Result       string       `json:"result"`
	Document     *DocumentDTO `json:"document"`
	MergePending bool         `json:"merge_pending"`
	DownloadURL  string       `json:"download_url,omitempty"`
}

type SubmitMergeResponse struct {
	Reply    *TurnDTO     `json:"reply"`
	Document *DocumentDTO `json:"document"`
	Merged   bool         `json:"merged"`
}

type CancelMergeResponse struct {
	Reply        *TurnDTO `json:"reply,omitempty"`
	MergePending bool     `json:"merge_pending"`
}

type SessionSnapshotResponse struct {
	SessionId    string       `json:"session_id"`
	Document     *DocumentDTO `json:"document"`
	MergePending bool         `json:"merge_pending"`
	Busy         bool         `json:"busy"`
	Transcript   []TurnDTO    `json:"transcript"`
}
