package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for article documents:
// English-stemmed full text on title/text/excerpt/author, exact keyword
// matching on the filter fields, and a numeric saved_at for recency
// sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	titleField.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleField)

	// Text is searchable but not stored; the record store holds the content.
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = en.AnalyzerName
	textField.Store = false
	textField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("text", textField)

	excerptField := bleve.NewTextFieldMapping()
	excerptField.Analyzer = en.AnalyzerName
	excerptField.Store = true
	docMapping.AddFieldMappingsAt("excerpt", excerptField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = en.AnalyzerName
	authorField.Store = true
	docMapping.AddFieldMappingsAt("author", authorField)

	siteNameField := bleve.NewTextFieldMapping()
	siteNameField.Analyzer = keyword.Name
	siteNameField.Store = true
	docMapping.AddFieldMappingsAt("site_name", siteNameField)

	for _, name := range []string{"id", "user_id", "type", "status"} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = keyword.Name
		docMapping.AddFieldMappingsAt(name, field)
	}

	// Keyword analyzer keeps compound tag slugs intact (e.g. "deep-dive").
	tagsField := bleve.NewTextFieldMapping()
	tagsField.Analyzer = keyword.Name
	tagsField.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsField)

	savedAtField := bleve.NewNumericFieldMapping()
	savedAtField.Store = true
	docMapping.AddFieldMappingsAt("saved_at", savedAtField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
