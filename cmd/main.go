package main

import (
	"fmt"
	"os"
	"time"

	"github.com/yungbote/examify-backend/internal/clients/gcp"
	"github.com/yungbote/examify-backend/internal/clients/gemini"
	"github.com/yungbote/examify-backend/internal/clients/openai"
	"github.com/yungbote/examify-backend/internal/clients/pinecone"
	"github.com/yungbote/examify-backend/internal/clients/redis"
	"github.com/yungbote/examify-backend/internal/db"
	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/repos"
	"github.com/yungbote/examify-backend/internal/services"
	"github.com/yungbote/examify-backend/internal/utils"
)

// App is the wired service graph. Transport layers (HTTP, workers) attach to
// it; until one does, main builds it and reports readiness.
type App struct {
	Materials services.MaterialService
	RAG       services.RAGService
	Grading   services.GradingService
	Questions services.QuestionGenService
	Exams     services.ExamService
	Feedback  services.FeedbackService
	Study     services.StudyService
}

func (a *App) logReady(log *logger.Logger, embeddingProvider, llmProvider string, ocrEnabled bool) {
	log.Info("examify backend initialized",
		"embedding_provider", embeddingProvider,
		"llm_provider", llmProvider,
		"ocr_enabled", ocrEnabled,
	)
}

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	embeddingProvider := utils.GetEnv("PREFERRED_EMBEDDING_PROVIDER", "openai", log)
	llmProvider := utils.GetEnv("PREFERRED_LLM_PROVIDER", "openai", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	materialRepo := repos.NewStudyMaterialRepo(thePG, log)
	chunkRepo := repos.NewDocumentChunkRepo(thePG, log)
	examRepo := repos.NewExamRepo(thePG, log)
	questionRepo := repos.NewExamQuestionRepo(thePG, log)
	attemptRepo := repos.NewExamAttemptRepo(thePG, log)
	answerRepo := repos.NewExamAnswerRepo(thePG, log)
	feedbackRepo := repos.NewAIFeedbackRepo(thePG, log)

	// Provider clients
	log.Info("Setting up provider clients from main...")
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Warn("Could not init OpenAI client", "error", err)
	}
	geminiClient, err := gemini.NewClient(log)
	if err != nil {
		log.Warn("Could not init Gemini client", "error", err)
	}
	pineconeClient, err := pinecone.New(log, pinecone.Config{
		APIKey:  utils.GetEnv("PINECONE_API_KEY", "", log),
		Timeout: time.Duration(utils.GetEnvAsInt("PINECONE_TIMEOUT_SECONDS", 30, log)) * time.Second,
	})
	if err != nil {
		log.Error("Could not init Pinecone client", "error", err)
		os.Exit(1)
	}
	vectorStore, err := pinecone.NewVectorStore(log, pineconeClient)
	if err != nil {
		log.Error("Could not init Pinecone vector store", "error", err)
		os.Exit(1)
	}
	embeddingCache, err := redis.NewEmbeddingCache(log)
	if err != nil {
		log.Warn("Could not init embedding cache; embeddings will not be cached", "error", err)
	}
	visionClient, err := gcp.NewVision(log)
	if err != nil {
		log.Warn("Could not init Vision client; image OCR disabled", "error", err)
	}

	// Services
	log.Info("Setting up Services from main...")
	embeddingService, err := services.NewEmbeddingService(log, embeddingProvider, openaiClient, geminiClient, embeddingCache)
	if err != nil {
		log.Error("Could not init EmbeddingService", "error", err)
		os.Exit(1)
	}
	llmService, err := services.NewLLMService(log, llmProvider, openaiClient, geminiClient)
	if err != nil {
		log.Error("Could not init LLMService", "error", err)
		os.Exit(1)
	}
	vectorIndexService, err := services.NewVectorIndexService(log, vectorStore)
	if err != nil {
		log.Error("Could not init VectorIndexService", "error", err)
		os.Exit(1)
	}
	gradingService := services.NewGradingService(log, llmService)
	questionGenService := services.NewQuestionGenService(log, llmService)
	app := &App{
		Materials: services.NewMaterialService(log, thePG, materialRepo, chunkRepo, embeddingService, vectorIndexService, visionClient),
		RAG:       services.NewRAGService(log, chunkRepo, embeddingService, vectorIndexService, llmService, visionClient),
		Grading:   gradingService,
		Questions: questionGenService,
		Exams:     services.NewExamService(log, thePG, examRepo, questionRepo, attemptRepo, answerRepo, chunkRepo, questionGenService, gradingService),
		Feedback:  services.NewFeedbackService(log, thePG, feedbackRepo, chunkRepo),
		Study:     services.NewStudyService(log, chunkRepo, llmService),
	}

	app.logReady(log, embeddingProvider, llmProvider, visionClient != nil)
}
