package practice

import "strings"

// Canned per-kind practice openers, sent when generation yields nothing
// usable. An empty proactive message is worse than a generic one.
//
// Keyed by lowercased native language name; "english" is the default.
var fallbackMessages = map[string]map[Kind]string{
	"english": {
		KindMorning:      "Good morning! ☀️ Ready for a quick practice round? Tell me one thing you plan to do today.",
		KindMidday:       "Time for a short practice break! What did you have for lunch today? Try answering in your target language.",
		KindEvening:      "Good evening! 🌙 How was your day? Describe it in a sentence or two — any language counts, but the target language counts double.",
		KindWeeklyReport: "Here is your week in review: you kept showing up, and that is what matters. See you next week!",
	},
	"russian": {
		KindMorning:      "Доброе утро! ☀️ Готовы к небольшой практике? Расскажите, что планируете сделать сегодня.",
		KindMidday:       "Пора сделать маленький перерыв на практику! Что вы ели сегодня на обед? Попробуйте ответить на изучаемом языке.",
		KindEvening:      "Добрый вечер! 🌙 Как прошёл ваш день? Опишите его парой предложений — лучше всего на изучаемом языке.",
		KindWeeklyReport: "Ваша неделя в цифрах: вы продолжали заниматься, и это главное. До следующей недели!",
	},
	"turkish": {
		KindMorning:      "Günaydın! ☀️ Kısa bir pratik turuna hazır mısın? Bugün yapmayı planladığın bir şeyi anlat.",
		KindMidday:       "Kısa bir pratik molası zamanı! Bugün öğle yemeğinde ne yedin? Hedef dilinde cevaplamayı dene.",
		KindEvening:      "İyi akşamlar! 🌙 Günün nasıl geçti? Bir iki cümleyle anlat — hedef dilinde olursa daha iyi.",
		KindWeeklyReport: "Haftalık özetin hazır: çalışmaya devam ettin, önemli olan da bu. Haftaya görüşürüz!",
	},
	"spanish": {
		KindMorning:      "¡Buenos días! ☀️ ¿Listo para una ronda rápida de práctica? Cuéntame una cosa que planeas hacer hoy.",
		KindMidday:       "¡Hora de una pequeña pausa de práctica! ¿Qué almorzaste hoy? Intenta responder en tu idioma de estudio.",
		KindEvening:      "¡Buenas noches! 🌙 ¿Qué tal tu día? Descríbelo en una o dos frases, mejor en tu idioma de estudio.",
		KindWeeklyReport: "Tu semana en resumen: seguiste practicando, y eso es lo que cuenta. ¡Hasta la próxima semana!",
	},
}

// FallbackMessage returns the canned message for a session kind, localized
// to the learner's native language when known.
func FallbackMessage(kind Kind, nativeLanguage string) string {
	lang := strings.ToLower(strings.TrimSpace(nativeLanguage))
	if messages, ok := fallbackMessages[lang]; ok {
		if msg, ok := messages[kind]; ok {
			return msg
		}
	}
	return fallbackMessages["english"][kind]
}
