package main

import (
	"flag"

	"github.com/quizdrill/quizdrill-backend/internal/bankbuilder"
	"github.com/quizdrill/quizdrill-backend/internal/config"
	"github.com/quizdrill/quizdrill-backend/internal/logger"
)

func main() {
	var sourceRoot, dataDir, imageDir string
	flag.StringVar(&sourceRoot, "source", "./output", "OCR output root (<subject>/cache and <subject>/images trees)")
	flag.StringVar(&dataDir, "data", "./data", "Directory for question-bank.json and chapter-index.json")
	flag.StringVar(&imageDir, "images", "./data/output", "Directory referenced page images are copied into")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	builder := bankbuilder.New(sourceRoot, dataDir, imageDir, log)
	result, err := builder.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("Bank build failed")
	}

	log.Info().
		Int("questions", result.Questions).
		Int("subjects", result.Subjects).
		Int("images", result.ImagesCopied).
		Str("source", sourceRoot).
		Msg("Bank build succeeded")
}
