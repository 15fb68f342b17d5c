// Command recipegen generates recipes from ingredient lists on the command
// line. Each positional argument is one comma separated list.
//
//	recipegen "macaroni, butter, salt, bacon, milk" "provolone cheese, bacon, bread"
//	recipegen -image fridge.jpg
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/pantrychef/recipegen/internal/config"
	"github.com/pantrychef/recipegen/internal/detection"
	"github.com/pantrychef/recipegen/internal/logger"
	"github.com/pantrychef/recipegen/internal/recipe"
	"github.com/pantrychef/recipegen/internal/services/chef"
	"github.com/pantrychef/recipegen/internal/services/generator"
	"github.com/pantrychef/recipegen/internal/services/storage"
)

const ruleWidth = 130

func main() {
	cuisine := flag.String("cuisine", "", "cuisine constraint")
	avoid := flag.String("avoid", "", "allergies to avoid")
	maxTime := flag.Int("max-time", 0, "maximum cooking time in minutes (0 = no limit)")
	image := flag.String("image", "", "detect ingredients in this photo instead of generating")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.LoadLocal()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	slog.SetDefault(logger.New(cfg.Env, cfg.LogLevel))

	if *image != "" {
		if err := detectIngredients(ctx, cfg, *image); err != nil {
			log.Fatalf("Detection failed: %v", err)
		}
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: recipegen [-cuisine c] [-avoid a] [-max-time n] \"item, item, ...\" ...")
		os.Exit(2)
	}

	constraints := recipe.Constraints{
		Cuisine:        *cuisine,
		Allergies:      recipe.NormalizeAllergies(*avoid),
		MaxTimeMinutes: *maxTime,
	}
	prompts := make([]string, 0, flag.NArg())
	for _, arg := range flag.Args() {
		prompts = append(prompts, recipe.BuildPrompt(recipe.NormalizeIngredients(arg), constraints))
	}

	service := chef.NewService(
		generator.NewProvider(cfg.Generation, generator.KeysFromConfig(cfg)),
		nil,
		chef.OptionsFromConfig(cfg),
	)

	recipes, err := service.GenerateFromPrompts(ctx, prompts)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	rule := strings.Repeat("-", ruleWidth)
	for _, r := range recipes {
		fmt.Print(recipe.FormatSections(r))
		fmt.Println(rule)
	}
}

func detectIngredients(ctx context.Context, cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	detector, err := detection.NewDetector(cfg.Detection, cfg.OpenAIKey, cfg.GeminiKey)
	if err != nil {
		return err
	}

	found, err := detector.Detect(ctx, data, storage.DetectContentType(data))
	if err != nil {
		return err
	}

	kept := detection.FilterDetections(found, cfg.Detection.MinConfidence)
	fmt.Println("Detected ingredients:", strings.Join(detection.ClassNames(kept), ", "))
	return nil
}
