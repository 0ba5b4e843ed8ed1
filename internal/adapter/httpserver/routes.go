package httpserver

import (
	"github.com/go-chi/chi/v5"
)

// jsonBodyLimit caps JSON request bodies; audio uploads have their own limit.
const jsonBodyLimit = 1 << 20

// Mount registers the /v1 API on r.
func (s *Server) Mount(r chi.Router) {
	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(j chi.Router) {
			j.Use(BodyLimit(jsonBodyLimit))

			j.Post("/interview/start", s.StartInterviewHandler())
			j.Post("/interview/{id}/respond", s.RespondHandler())
			j.Get("/interview/{id}/history", s.HistoryHandler())
			j.Post("/interview/{id}/end", s.EndInterviewHandler())

			j.Get("/aptitude/questions/random", s.RandomQuestionHandler())
			j.Post("/aptitude/questions/submit_answer", s.SubmitAnswerHandler())
			j.Get("/aptitude/progress", s.ProgressHandler())
			j.Post("/aptitude/explain_concept", s.ExplainConceptHandler())
			j.Get("/aptitude/chat_history", s.ChatHistoryHandler())
			j.Post("/aptitude/chat", s.ChatHandler())

			j.Post("/speech/tts", s.TTSHandler())
			j.Post("/speech/say", s.SayHandler())
		})
		v1.Post("/speech/transcribe", s.TranscribeHandler())
	})
}
