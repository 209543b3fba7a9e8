package ingest

import "strings"

// Column alias resolution for delimited imports. Exact aliases are tried
// first, in priority order; localized stems are a containment fallback so
// headers such as "Beschreibung" or "Produkt-Titel" map without
// configuration.

var contentAliases = []string{"content", "text", "description", "body"}

var contentStems = []string{
	"inhalt", "beschreibung", // de
	"contenu", "texte", // fr
	"contenido", "texto", "descripcion", // es
	"descrizione", "testo", // it
	"description", "text", // en compounds e.g. product_description
}

var titleAliases = []string{"title", "name", "subject"}

var titleStems = []string{
	"titel", "betreff", // de
	"titre", // fr
	"titulo", "nombre", // es
	"titolo", // it
	"title", "name", // en compounds
}

var idAliases = []string{"id", "identifier", "key"}

// columnMap holds resolved column indices; -1 means absent
type columnMap struct {
	content int
	title   int
	id      int
}

// resolveColumns maps a header row to document fields
func resolveColumns(header []string) columnMap {
	normalized := make([]string, len(header))
	for i, cell := range header {
		normalized[i] = normalizeHeader(cell)
	}

	return columnMap{
		content: resolveColumn(normalized, contentAliases, contentStems),
		title:   resolveColumn(normalized, titleAliases, titleStems),
		id:      resolveColumn(normalized, idAliases, nil),
	}
}

// resolveColumn finds the first header matching an alias exactly, then
// falls back to stem containment. Alias order is priority order.
func resolveColumn(header []string, aliases []string, stems []string) int {
	for _, alias := range aliases {
		for i, cell := range header {
			if cell == alias {
				return i
			}
		}
	}

	for _, stem := range stems {
		for i, cell := range header {
			if strings.Contains(cell, stem) {
				return i
			}
		}
	}

	return -1
}

// normalizeHeader lowercases, trims, and strips a UTF-8 BOM
func normalizeHeader(cell string) string {
	cell = strings.TrimPrefix(cell, "\uFEFF")
	return strings.ToLower(strings.TrimSpace(cell))
}
