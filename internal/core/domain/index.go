package domain

// Index field names. These are shared by the index schema, the indexer
// and the retriever.
const (
	FieldID          = "id"
	FieldContent     = "content"
	FieldDocumentID  = "documentId"
	FieldDisplayName = "displayName"
	FieldTimestamp   = "timestamp"
)

// DefaultSemanticConfiguration is the name of the semantic ranking
// configuration created alongside the index.
const DefaultSemanticConfiguration = "default"

// DefaultAnalyzer is the language analyzer applied to the content field.
const DefaultAnalyzer = "en.microsoft"

// FieldType is the data type of an index field.
type FieldType string

// Supported field types.
const (
	FieldTypeString         FieldType = "Edm.String"
	FieldTypeDateTimeOffset FieldType = "Edm.DateTimeOffset"
)

// IndexField describes one field of the search index schema.
type IndexField struct {
	Name        string
	Type        FieldType
	Key         bool
	Searchable  bool
	Filterable  bool
	Sortable    bool
	Facetable   bool
	Retrievable bool

	// Analyzer is the language analyzer for searchable fields.
	Analyzer string
}

// SemanticConfig prioritises fields for semantic ranking.
type SemanticConfig struct {
	Name          string
	TitleField    string
	ContentFields []string
}

// IndexDescriptor is the logical name of the search index plus its schema.
// There is one descriptor per backend and it is created at most once.
type IndexDescriptor struct {
	Name     string
	Fields   []IndexField
	Semantic SemanticConfig
}

// NewIndexDescriptor returns the transcript index schema under the given name.
// An empty analyzer selects DefaultAnalyzer.
func NewIndexDescriptor(name, analyzer string) IndexDescriptor {
	if analyzer == "" {
		analyzer = DefaultAnalyzer
	}
	return IndexDescriptor{
		Name: name,
		Fields: []IndexField{
			{Name: FieldID, Type: FieldTypeString, Key: true, Filterable: true, Retrievable: true},
			{Name: FieldContent, Type: FieldTypeString, Searchable: true, Retrievable: true, Analyzer: analyzer},
			{Name: FieldDocumentID, Type: FieldTypeString, Filterable: true, Retrievable: true},
			{
				Name: FieldDisplayName, Type: FieldTypeString, Searchable: true,
				Filterable: true, Sortable: true, Facetable: true, Retrievable: true,
			},
			{Name: FieldTimestamp, Type: FieldTypeDateTimeOffset, Filterable: true, Sortable: true, Retrievable: true},
		},
		Semantic: SemanticConfig{
			Name:          DefaultSemanticConfiguration,
			TitleField:    FieldDisplayName,
			ContentFields: []string{FieldContent},
		},
	}
}

// Field returns the named field and whether it exists.
func (d IndexDescriptor) Field(name string) (IndexField, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return IndexField{}, false
}

// KeyField returns the name of the key field, or "" if none is marked.
func (d IndexDescriptor) KeyField() string {
	for _, f := range d.Fields {
		if f.Key {
			return f.Name
		}
	}
	return ""
}
