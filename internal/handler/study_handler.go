package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errcode"
	"github.com/xxxsen/studynote/internal/pkg/response"
	"github.com/xxxsen/studynote/internal/service"
)

const maxUploadBytes = 20 << 20

type StudyHandler struct {
	notes     *service.NotesService
	artifacts *service.ArtifactService
	chat      *service.ChatService
}

func NewStudyHandler(notes *service.NotesService, artifacts *service.ArtifactService, chat *service.ChatService) *StudyHandler {
	return &StudyHandler{notes: notes, artifacts: artifacts, chat: chat}
}

type ingestResponse struct {
	ContentID         string               `json:"content_id"`
	Title             string               `json:"title"`
	Notes             string               `json:"notes"`
	OriginalText      string               `json:"original_text"`
	FileNames         []string             `json:"processed_file_names"`
	Warnings          []string             `json:"warnings"`
	InitialQuiz       []model.QuizQuestion `json:"initial_quiz,omitempty"`
	InitialFlashcards []model.Flashcard    `json:"initial_flashcards,omitempty"`
	InitialMindmap    string               `json:"initial_mindmap,omitempty"`
}

// Ingest accepts multipart form data: urls (JSON array), files, text, topic,
// description and boolean flags.
func (h *StudyHandler) Ingest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "multipart form required")
		return
	}
	req := &service.IngestRequest{
		Text:        formValue(form.Value, "text"),
		Topic:       formValue(form.Value, "topic"),
		Description: formValue(form.Value, "description"),
		WebSearch:   formBool(form.Value, "web_search"),
	}
	if rawURLs := formValue(form.Value, "urls"); rawURLs != "" {
		if err := json.Unmarshal([]byte(rawURLs), &req.URLs); err != nil {
			// Tolerate a single bare URL or a comma separated list.
			for _, u := range strings.Split(rawURLs, ",") {
				if u = strings.TrimSpace(u); u != "" {
					req.URLs = append(req.URLs, u)
				}
			}
		}
	}
	for _, file := range form.File["files"] {
		if file.Size > maxUploadBytes {
			response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "file too large: "+file.Filename)
			return
		}
		opened, err := file.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, errcode.ErrUploadFailed, "failed to open upload: "+file.Filename)
			return
		}
		data, err := io.ReadAll(opened)
		opened.Close()
		if err != nil {
			response.Error(c, http.StatusBadRequest, errcode.ErrUploadFailed, "failed to read upload: "+file.Filename)
			return
		}
		req.Files = append(req.Files, service.UploadedFile{
			Name: file.Filename,
			Mime: file.Header.Get("Content-Type"),
			Data: data,
		})
	}

	result, err := h.notes.Ingest(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	rsp := ingestResponse{
		ContentID:    result.ContentID,
		Title:        result.Title,
		Notes:        result.Notes,
		OriginalText: result.OriginalText,
		FileNames:    result.FileNames,
		Warnings:     result.Warnings,
	}
	// Initial artifacts are best effort; a failed extra generation should
	// not discard a successful ingest.
	ctx := c.Request.Context()
	if formBool(form.Value, "generate_quiz") {
		if quiz, err := h.artifacts.GenerateQuiz(ctx, result.ContentID, 0, nil, nil, ""); err != nil {
			rsp.Warnings = append(rsp.Warnings, "Initial quiz generation failed")
		} else {
			rsp.InitialQuiz = quiz.Questions
		}
	}
	if formBool(form.Value, "generate_flashcards") {
		if cards, err := h.artifacts.GenerateFlashcards(ctx, result.ContentID, 0, nil); err != nil {
			rsp.Warnings = append(rsp.Warnings, "Initial flashcard generation failed")
		} else {
			rsp.InitialFlashcards = cards.Cards
		}
	}
	if formBool(form.Value, "generate_mindmap") {
		if mindmap, err := h.artifacts.GenerateMindmap(ctx, result.ContentID); err != nil {
			rsp.Warnings = append(rsp.Warnings, "Initial mind map generation failed")
		} else {
			rsp.InitialMindmap = mindmap
		}
	}
	response.Success(c, rsp)
}

func (h *StudyHandler) GetContent(c *gin.Context) {
	record, err := h.notes.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	var fileNames []string
	_ = json.Unmarshal([]byte(record.FileNames), &fileNames)
	response.Success(c, gin.H{
		"content_id":           record.ID,
		"title":                record.Title,
		"notes":                record.Notes,
		"original_text":        record.OriginalText,
		"processed_file_names": fileNames,
		"ctime":                record.Ctime,
	})
}

type quizRequest struct {
	ContentID         string   `json:"content_id"`
	NumQuestions      int      `json:"num_questions"`
	QuestionTypes     []string `json:"question_types"`
	ExistingQuestions []string `json:"existing_questions"`
	Difficulty        string   `json:"difficulty"`
}

func (h *StudyHandler) GenerateQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.artifacts.GenerateQuiz(c.Request.Context(),
		req.ContentID, req.NumQuestions, req.QuestionTypes, req.ExistingQuestions, req.Difficulty)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"quiz_id": result.QuizID, "questions": result.Questions})
}

type flashcardRequest struct {
	ContentID     string   `json:"content_id"`
	NumCards      int      `json:"num_cards"`
	ExistingCards []string `json:"existing_flashcards"`
}

func (h *StudyHandler) GenerateFlashcards(c *gin.Context) {
	var req flashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.artifacts.GenerateFlashcards(c.Request.Context(), req.ContentID, req.NumCards, req.ExistingCards)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"flashcard_id": result.FlashcardID, "flashcards": result.Cards})
}

type mindmapRequest struct {
	ContentID string `json:"content_id"`
}

func (h *StudyHandler) GenerateMindmap(c *gin.Context) {
	var req mindmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	mindmap, err := h.artifacts.GenerateMindmap(c.Request.Context(), req.ContentID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"mindmap": mindmap})
}

type chatRequest struct {
	ContentID string `json:"content_id"`
	Message   string `json:"message"`
	WebSearch bool   `json:"web_search"`
}

func (h *StudyHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.chat.Chat(c.Request.Context(), &service.ChatRequest{
		ContentID: req.ContentID,
		Message:   req.Message,
		WebSearch: req.WebSearch,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"reply":     result.Reply,
		"history":   result.History,
		"citations": result.Citations,
	})
}

type evaluateRequest struct {
	ContentID     string `json:"content_id"`
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
	UserAnswer    string `json:"user_answer"`
}

func (h *StudyHandler) EvaluateAnswer(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	eval, err := h.artifacts.EvaluateAnswer(c.Request.Context(), req.ContentID, req.Question, req.CorrectAnswer, req.UserAnswer)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"score": eval.Score, "feedback": eval.Feedback})
}

func formValue(values map[string][]string, key string) string {
	if v, ok := values[key]; ok && len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func formBool(values map[string][]string, key string) bool {
	v := formValue(values, key)
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
