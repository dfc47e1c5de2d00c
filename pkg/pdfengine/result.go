package pdfengine

import (
	"path/filepath"
	"strings"

	"pdf-assistant-be/internal/entity"
)

// CommandResponse is the raw wire shape of process-pdf and merge-pdfs
// responses. The engine signals its outcome through optional fields; Classify
// folds them into a single tagged result exactly once, at this boundary.
type CommandResponse struct {
	Message        string `json:"message"`
	FileId         string `json:"file_id,omitempty"`
	Filename       string `json:"filename,omitempty"`
	IsWordFile     bool   `json:"is_word_file,omitempty"`
	IsTextFile     bool   `json:"is_text_file,omitempty"`
	DownloadURL    string `json:"download_url,omitempty"`
	RequiresUpload bool   `json:"requires_upload,omitempty"`
}

// Result kinds. ResultFailure is produced by the dispatcher on transport
// faults and engine rejections; Classify itself only sees successful replies
// and returns one of the other four.
const (
	ResultNeedsInput = "needs_input"
	ResultMutation   = "mutation"
	ResultArtifact   = "artifact"
	ResultAck        = "ack"
	ResultFailure    = "failure"
)

// Artifact sub-types
const (
	ArtifactWord = "word"
	ArtifactText = "text"
)

// CommandResult is the classified outcome of one dispatched command. Exactly
// one kind applies to any response.
type CommandResult struct {
	Kind         string
	Message      string
	Document     *entity.DocumentHandle // set only for ResultMutation
	ArtifactType string                 // set only for ResultArtifact
	DownloadURL  string                 // set only for ResultArtifact
}

// Classify maps a successful engine response to exactly one result kind, in
// priority order: supplementary-input request, then new document revision,
// then non-document artifact, then plain acknowledgement.
func (r *CommandResponse) Classify(current entity.DocumentHandle) CommandResult {
	switch {
	case r.RequiresUpload:
		return CommandResult{Kind: ResultNeedsInput, Message: r.Message}

	case r.FileId != "" && r.FileId != current.DocumentId && !r.IsWordFile && !r.IsTextFile:
		filename := r.Filename
		if filename == "" {
			filename = DeriveProcessedFilename(current.Filename)
		}
		return CommandResult{
			Kind:    ResultMutation,
			Message: r.Message,
			Document: &entity.DocumentHandle{
				DocumentId: r.FileId,
				Filename:   filename,
			},
		}

	case r.IsWordFile || r.IsTextFile:
		artifactType := ArtifactText
		if r.IsWordFile {
			artifactType = ArtifactWord
		}
		return CommandResult{
			Kind:         ResultArtifact,
			Message:      r.Message,
			ArtifactType: artifactType,
			DownloadURL:  r.DownloadURL,
		}

	default:
		return CommandResult{Kind: ResultAck, Message: r.Message}
	}
}

// DeriveProcessedFilename builds the fallback name for a mutated document when
// the engine omits one: the prior name with its extension stripped plus a
// processed-file suffix. "report.v2.pdf" becomes "report.v2_processed.pdf".
func DeriveProcessedFilename(prior string) string {
	base := strings.TrimSuffix(prior, filepath.Ext(prior))
	if base == "" {
		base = "document"
	}
	return base + "_processed.pdf"
}
