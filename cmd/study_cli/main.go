// Command study_cli repasa flashcards desde la terminal usando los mismos servicios que la API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"studycards/internal/config"
	"studycards/internal/db"
	"studycards/internal/domain"
	"studycards/internal/kv"
	"studycards/internal/llm"
	"studycards/internal/repository"
	"studycards/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := kv.NewMemoryStore()
	authSvc := service.NewAuthService(service.AuthServiceDeps{
		Logger:        logger,
		Users:         repository.NewPgUserRepository(pool),
		Sessions:      service.NewJWTServiceWithStore(cfg.SecretKey, time.Hour, time.Hour, service.NewRefreshTokenStore(store)),
		Verifications: service.NewVerificationTokenService(cfg.SecretKey),
		KV:            store,
		BaseURL:       cfg.PublicBaseURL,
	})

	generator := service.NewPlaceholderGenerator()
	if cfg.LLMAPIKey != "" {
		generator = service.NewLLMCardGenerator(llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, service.CardLLMOptions(cfg.LLMTimeout), logger), logger)
	}
	cardSvc := service.NewFlashcardService(logger, repository.NewPgFlashcardRepository(pool), generator)

	user, err := loginFlow(ctx, reader, authSvc)
	if err != nil {
		log.Fatal(err)
	}

	for {
		fmt.Printf("\n===== %s (%d tarjetas) =====\n", user.Email, cardSvc.Count(ctx, user.ID))
		fmt.Println("[1] Listar tarjetas")
		fmt.Println("[2] Repasar")
		fmt.Println("[3] Nueva tarjeta")
		fmt.Println("[4] Salir")
		fmt.Print("Selecciona una opcion: ")

		switch readLine(reader) {
		case "1":
			listFlow(ctx, reader, cardSvc, user.ID)
		case "2":
			if err := reviewFlow(ctx, reader, cardSvc, user.ID); err != nil {
				fmt.Printf("Error en repaso: %v\n", err)
			}
		case "3":
			if err := createFlow(ctx, reader, cardSvc, user.ID); err != nil {
				fmt.Printf("Error creando tarjeta: %v\n", err)
			}
		case "4":
			return
		default:
			fmt.Println("Opcion invalida.")
		}
	}
}

func loginFlow(ctx context.Context, reader *bufio.Reader, authSvc *service.AuthService) (domain.User, error) {
	for attempt := 0; attempt < 3; attempt++ {
		fmt.Print("Email: ")
		emailAddr := readLine(reader)
		fmt.Print("Password: ")
		password := readLine(reader)

		result, err := authSvc.Login(ctx, emailAddr, password)
		switch {
		case err == nil:
			return result.User, nil
		case errors.Is(err, service.ErrEmailNotVerified):
			return domain.User{}, errors.New("email not verified: open the link sent to your inbox first")
		case errors.Is(err, service.ErrInvalidCredentials):
			fmt.Println("Credenciales invalidas.")
		default:
			return domain.User{}, err
		}
	}
	return domain.User{}, errors.New("too many failed attempts")
}

func listFlow(ctx context.Context, reader *bufio.Reader, cardSvc *service.FlashcardService, userID int64) {
	fmt.Print("Categoria (enter = todas): ")
	category := readLine(reader)
	fmt.Print("Orden [newest/oldest/mastery] (enter = newest): ")
	sort := domain.SortKey(strings.ToLower(readLine(reader)))
	if sort == "" {
		sort = domain.SortNewest
	}

	cards := cardSvc.List(ctx, userID, category, sort)
	if len(cards) == 0 {
		fmt.Println("No hay tarjetas.")
		return
	}
	for _, card := range cards {
		fmt.Printf("[%d] (%s, dominio %d/%d) %s\n", card.ID, card.Category, card.MasteryLevel, domain.MaxMastery, card.Question)
	}
}

func reviewFlow(ctx context.Context, reader *bufio.Reader, cardSvc *service.FlashcardService, userID int64) error {
	cards := cardSvc.List(ctx, userID, "", domain.SortMastery)
	if len(cards) == 0 {
		fmt.Println("No hay tarjetas para repasar.")
		return nil
	}
	fmt.Println("---- Repaso (enter revela la respuesta; + / - ajusta dominio; q termina) ----")
	for _, card := range cards {
		fmt.Printf("\nQ: %s\n", card.Question)
		if readLine(reader) == "q" {
			return nil
		}
		fmt.Printf("A: %s\n", card.Answer)
		fmt.Print("[+] la sabia  [-] no la sabia  [enter] seguir: ")

		var dir domain.MasteryDirection
		switch readLine(reader) {
		case "+":
			dir = domain.MasteryIncrease
		case "-":
			dir = domain.MasteryDecrease
		case "q":
			return nil
		default:
			continue
		}
		result, err := cardSvc.AdjustMastery(ctx, userID, card.ID, dir)
		if err != nil {
			return err
		}
		if result.Flashcard != nil {
			fmt.Printf("Dominio: %d/%d\n", result.Flashcard.MasteryLevel, domain.MaxMastery)
		}
	}
	return nil
}

func createFlow(ctx context.Context, reader *bufio.Reader, cardSvc *service.FlashcardService, userID int64) error {
	fmt.Print("Texto de estudio (enter para escribir pregunta y respuesta): ")
	input := service.CreateFlashcardInput{StudyText: readLine(reader)}
	if input.StudyText == "" {
		fmt.Print("Pregunta: ")
		input.Question = readLine(reader)
		fmt.Print("Respuesta: ")
		input.Answer = readLine(reader)
	}
	fmt.Printf("Categoria (enter = %s): ", domain.DefaultCategory)
	input.Category = readLine(reader)

	card, err := cardSvc.Create(ctx, userID, input)
	if err != nil {
		return err
	}
	fmt.Printf("Tarjeta %s creada: %s\n", strconv.FormatInt(card.ID, 10), card.Question)
	return nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
