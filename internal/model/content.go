package model

type SourceKind string

const (
	SourceKindWebsite SourceKind = "website"
	SourceKindVideo   SourceKind = "video"
	SourceKindFile    SourceKind = "file"
	SourceKindRawText SourceKind = "rawtext"
	SourceKindTopic   SourceKind = "topic"
)

// ContentUnit is the normalized form of one ingested source. A unit with Err
// set is excluded from aggregation but kept for the warnings list.
type ContentUnit struct {
	Title     string
	Text      string
	FileRef   *FileReference
	SourceURI string
	Kind      SourceKind
	Err       error
}

func (u *ContentUnit) Usable() bool {
	return u.Err == nil && (u.Text != "" || u.FileRef != nil)
}

type FileState string

const (
	FileStatePending    FileState = "PENDING"
	FileStateProcessing FileState = "PROCESSING"
	FileStateActive     FileState = "ACTIVE"
	FileStateFailed     FileState = "FAILED"
	FileStateDeleted    FileState = "DELETED"
)

// FileReference is a handle to a document uploaded to the generative service
// for direct multimodal analysis. The request that created it owns it and
// must delete it before returning.
type FileReference struct {
	Handle      string
	URI         string
	DisplayName string
	MimeType    string
	State       FileState
}

// SearchResult is one link+snippet pair returned by the web search API.
type SearchResult struct {
	URL     string
	Snippet string
}

// Citation ties a sequential reference label to the URL it stands for.
type Citation struct {
	Ref string
	URL string
}

// ContentRecord is the persisted output of one ingest run.
type ContentRecord struct {
	ID           string `db:"id"`
	Title        string `db:"title"`
	Notes        string `db:"notes"`
	OriginalText string `db:"original_text"`
	FileNames    string `db:"file_names"`
	Ctime        int64  `db:"ctime"`
}
