package usecase

import "strings"

// QueryClass is the three-way classification of an incoming query.
type QueryClass int

const (
	ClassNormal QueryClass = iota
	ClassGreeting
	ClassPlatformMeta
)

func (c QueryClass) String() string {
	switch c {
	case ClassGreeting:
		return "greeting"
	case ClassPlatformMeta:
		return "platform_meta"
	default:
		return "normal"
	}
}

// The keyword tables below drive classification. They are data, not control
// flow: extending the vocabulary must never require touching Classify.

// greetingPhrases trigger the direct-response path with no retrieval.
var greetingPhrases = []string{
	"hola", "buenos días", "buenas tardes", "buenas noches",
	"qué tal", "saludos", "hey", "hi", "hello", "buen día",
}

// platformKeywords mark questions about the quoting portals, which the
// generation preamble already knows how to answer without manual context.
var platformKeywords = []string{
	"portal", "portales", "intermediario", "intermediarios",
	"portal de ideas", "portal idea", "plataforma",
	"donde cotizar", "dónde cotizar", "donde cotizo",
}

// productVocabulary lists the product names the corpus covers.
var productVocabulary = []string{
	"versátil", "versatil", "premium", "platino", "conexión gnp",
	"gmm", "gastos médicos", "vida", "auto", "autos", "daños",
	"hogar", "mascota", "negocio protegido", "cyber safe",
}

// featureVocabulary lists feature-category tokens. A query naming both a
// product and a feature needs wider retrieval to avoid dropping a clause.
var featureVocabulary = []string{
	// Periodos y tiempos
	"periodos de espera", "periodo de espera", "períodos de espera", "período de espera",
	"tiempo de espera", "tiempos de espera", "cuánto tiempo",
	// Costos y pagos
	"deducible", "deducibles", "coaseguro", "coaseguros", "copago", "copagos",
	"precio", "precios", "costo", "costos", "prima", "primas", "tarifa", "tarifas",
	// Coberturas y beneficios
	"cobertura", "coberturas", "beneficio", "beneficios", "servicio", "servicios",
	"incluye", "cubre", "protege", "ampara",
	// Exclusiones y limitaciones
	"exclusiones", "exclusión", "limitaciones", "limitación", "restricciones", "restricción",
	"no cubre", "no incluye", "excepto", "salvo",
	// Requisitos y documentación
	"requisitos", "requisito", "documentos", "documento", "papeles", "trámites", "trámite",
	// Listas completas
	"lista completa", "todos los", "todas las", "todo lo que", "cuáles son todos",
	"lista de", "listado de", "relación de",
	// Condiciones
	"condiciones", "condición", "cláusula", "cláusulas", "términos",
	// Sumas aseguradas y límites
	"suma asegurada", "sumas aseguradas", "límite", "límites", "tope", "topes",
	"monto", "montos", "máximo", "máximos", "mínimo", "mínimos",
}

// Classifier inspects query text. Pure, deterministic, case-insensitive.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the three-way class of the query. Greeting wins over
// platform-meta when both match.
func (c *Classifier) Classify(query string) QueryClass {
	msg := normalize(query)
	if containsAny(msg, greetingPhrases) {
		return ClassGreeting
	}
	if containsAny(msg, platformKeywords) {
		return ClassPlatformMeta
	}
	return ClassNormal
}

// NeedsComprehensive reports whether the query names both a product and a
// specific feature. Independent of Classify; controls retrieval breadth.
func (c *Classifier) NeedsComprehensive(query string) bool {
	msg := normalize(query)
	return containsAny(msg, productVocabulary) && containsAny(msg, featureVocabulary)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
