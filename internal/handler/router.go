package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Study *StudyHandler
	Files *FileHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/study/ingest", deps.Study.Ingest)
	api.GET("/study/content/:id", deps.Study.GetContent)
	api.POST("/study/quiz", deps.Study.GenerateQuiz)
	api.POST("/study/flashcards", deps.Study.GenerateFlashcards)
	api.POST("/study/mindmap", deps.Study.GenerateMindmap)
	api.POST("/study/chat", deps.Study.Chat)
	api.POST("/study/evaluate", deps.Study.EvaluateAnswer)

	api.GET("/files/:key", deps.Files.Get)
}
