package models

// UploadResponse is returned after successful file upload
type UploadResponse struct {
	Message       string   `json:"message"`
	FileIndex     int      `json:"file_index"`
	Rows          int      `json:"rows"`
	Columns       int      `json:"columns"`
	ColumnNames   []string `json:"column_names"`
	IDSynthesized bool     `json:"id_synthesized"`
}

// FileStatus represents status of a loaded table
type FileStatus struct {
	Loaded   bool   `json:"loaded"`
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
	Filename string `json:"filename,omitempty"`
	Source   string `json:"source,omitempty"`
}

// StatusResponse is returned by /status endpoint
type StatusResponse struct {
	File1Loaded   bool       `json:"file1_loaded"`
	File2Loaded   bool       `json:"file2_loaded"`
	File1         FileStatus `json:"file1"`
	File2         FileStatus `json:"file2"`
	HasMerged     bool       `json:"has_merged"`
	HasDuplicates bool       `json:"has_duplicates"`
}

// PreviewResponse for /preview
type PreviewResponse struct {
	FileIndex int        `json:"file_index"`
	Header    []string   `json:"header"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
}

// ColumnProfile holds value statistics of one column.
type ColumnProfile struct {
	ColumnName      string  `json:"column_name"`
	TotalRows       int     `json:"total_rows"`
	NonEmptyRows    int     `json:"non_empty_rows"`
	NullRate        float64 `json:"null_rate"`
	DistinctCount   int     `json:"distinct_count"`
	UniquenessRatio float64 `json:"uniqueness_ratio"`
	NumericRatio    float64 `json:"numeric_ratio"`
	Entropy         float64 `json:"entropy"`
	IsIDColumn      bool    `json:"is_id_column"`
}

// ColumnInfo describes one non-id column of a prepared table.
type ColumnInfo struct {
	Index   int           `json:"index"`
	Name    string        `json:"name"`
	Type    ColumnType    `json:"type"`
	Profile ColumnProfile `json:"profile"`
}

// TableAnalysis is the classifier and profiler output for a table.
type TableAnalysis struct {
	Name          string        `json:"name,omitempty"`
	NumRows       int           `json:"num_rows"`
	NumColumns    int           `json:"num_columns"`
	IDColumn      string        `json:"id_column"`
	IDSynthesized bool          `json:"id_synthesized"`
	Columns       []ColumnInfo  `json:"columns"`
	IDProfile     ColumnProfile `json:"id_profile"`
}

// ColumnTypesResponse for /column-types
type ColumnTypesResponse struct {
	FileIndex int           `json:"file_index"`
	Analysis  TableAnalysis `json:"analysis"`
}

// ColumnMatch names the columns of one column pair.
type ColumnMatch struct {
	Pair        Pair    `json:"pair"`
	LeftColumn  string  `json:"left_column,omitempty"`
	RightColumn string  `json:"right_column,omitempty"`
	Score       float64 `json:"score"`
}

// ColumnMatchingResponse for /column-matching
type ColumnMatchingResponse struct {
	LeftFile  int           `json:"left_file"`
	RightFile int           `json:"right_file"`
	Swapped   bool          `json:"swapped"`
	Matches   []ColumnMatch `json:"matches"`
	Types     []ColumnType  `json:"types"`
}

// DetectResponse for /detect
type DetectResponse struct {
	FileIndex  int       `json:"file_index"`
	Threshold  float64   `json:"threshold"`
	Pairs      []Pair    `json:"pairs"`
	Duplicates int       `json:"duplicates"`
	Rankings   []Ranking `json:"rankings"`
	// Evaluation is set when the table was generated with a known matching.
	Evaluation *EvaluationReport `json:"evaluation,omitempty"`
}

// MergeResponse for /merge
type MergeResponse struct {
	Threshold float64     `json:"threshold"`
	Header    []string    `json:"header"`
	Rows      int         `json:"rows"`
	Matched   int         `json:"matched"`
	LeftOnly  int         `json:"left_only"`
	RightOnly int         `json:"right_only"`
	Pairs     []Pair      `json:"pairs"`
	Preview   [][]*string `json:"preview"`

	Evaluation *EvaluationReport `json:"evaluation,omitempty"`
}

// GenerateRequest for /generate
type GenerateRequest struct {
	Rows int    `json:"rows"`
	Seed int64  `json:"seed"`
	Mode string `json:"mode"`
}

// GenerateResponse for /generate
type GenerateResponse struct {
	Mode   string       `json:"mode"`
	Seed   int64        `json:"seed"`
	Tables []FileStatus `json:"tables"`
	Truth  []Pair       `json:"truth"`
}

// DBLoadRequest for /api/db/load
type DBLoadRequest struct {
	Table     string `json:"table"`
	FileIndex int    `json:"file_index"`
	Limit     int    `json:"limit"`
	HasID     string `json:"has_id"`
}

// EvaluationReport compares found row matchings with the expected ones.
type EvaluationReport struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
	Failed  int `json:"failed"`
}
