package report

// promptSet holds the language-specific system-prompt fragments used across
// all Report Builder sub-calls, keyed by language code, per §9's note that
// "all prompts in all languages sit in one table keyed by language code."
type promptSet struct {
	pickupLineSystem  string
	topicSummarySystem string
	communityPulseSystem string
	fallbackUpdates   string // "Latest {topic} updates" template, %s = topic
}

var prompts = map[string]promptSet{
	"en": {
		pickupLineSystem:    "You write short, factual news headlines. Given a list of article titles and trending keywords, produce a single 3-5 word title with no emojis and no sensational words like BREAKING. Respond with only the title.",
		topicSummarySystem:  "You are a news editor. Summarize the supplied articles and community posts into a Markdown-lite brief of at most 100 words. Start with a bold header naming the topic followed by 'Summary'. Follow with 2-3 bullet-point sections using '•', inventing section titles that match the actual content rather than generic ones.",
		communityPulseSystem: "You summarize online discussion into a brief executive update of at most 150 words. Start with a bold 'Key Developments:' header followed by bullet points ('•'). Focus on world events, not personal anecdotes.",
		fallbackUpdates:     "Latest %s updates",
	},
	"es": {
		pickupLineSystem:    "Escribes titulares de noticias breves y objetivos. Dada una lista de títulos de artículos y palabras clave en tendencia, produce un único título de 3 a 5 palabras sin emojis ni palabras sensacionalistas. Responde solo con el título.",
		topicSummarySystem:  "Eres un editor de noticias. Resume los artículos y publicaciones de la comunidad en un resumen estilo Markdown de no más de 100 palabras. Comienza con un encabezado en negrita con el nombre del tema seguido de 'Resumen'. Continúa con 2-3 secciones de viñetas usando '•'.",
		communityPulseSystem: "Resumes discusiones en línea en una breve actualización ejecutiva de no más de 150 palabras. Comienza con un encabezado en negrita 'Novedades clave:' seguido de viñetas ('•').",
		fallbackUpdates:     "Últimas actualizaciones de %s",
	},
	"fr": {
		pickupLineSystem:    "Vous écrivez des titres d'actualité courts et factuels. À partir d'une liste de titres d'articles et de mots-clés tendance, produisez un seul titre de 3 à 5 mots, sans emoji ni mots sensationnalistes. Répondez uniquement par le titre.",
		topicSummarySystem:  "Vous êtes rédacteur en chef. Résumez les articles et publications communautaires fournis en un résumé au format Markdown allégé d'au plus 100 mots. Commencez par un en-tête en gras nommant le sujet suivi de 'Résumé'.",
		communityPulseSystem: "Vous résumez les discussions en ligne en une brève mise à jour exécutive d'au plus 150 mots. Commencez par un en-tête en gras 'Points clés :' suivi de puces ('•').",
		fallbackUpdates:     "Dernières actualités sur %s",
	},
}

func promptsFor(language string) promptSet {
	if p, ok := prompts[language]; ok {
		return p
	}
	return prompts["en"]
}

// personalKeywords flag posts/comments as predominantly personal content to
// exclude from the community pulse, per §4.4.
var personalKeywords = []string{
	"my girlfriend", "my boyfriend", "my wife", "my husband", "am i the",
	"aita", "tifu", "relationship advice", "my therapist", "my diagnosis",
	"advice needed", "vent", "rant about my", "my landlord", "my coworker",
}

// worldCommunities are community names treated as inherently world/news
// content regardless of keyword match, per §4.4.
var worldCommunities = map[string]bool{
	"worldnews":  true,
	"news":       true,
	"politics":   true,
	"economics":  true,
	"technology": true,
	"business":   true,
}

// worldEventKeywords flag a post as world-event content by substring match.
var worldEventKeywords = []string{
	"election", "war", "ceasefire", "sanctions", "parliament", "summit",
	"treaty", "inflation", "central bank", "supreme court", "united nations",
	"earthquake", "hurricane", "wildfire", "outbreak", "recession",
}

// hotTopicNames is the fixed set of names the community pulse extracts into
// key_topics by substring match, per §4.4.
var hotTopicNames = []string{
	"AI", "inflation", "election", "war", "climate", "recession", "tariffs",
	"interest rates", "supreme court", "cybersecurity",
}

const personalScoreThreshold = 100
