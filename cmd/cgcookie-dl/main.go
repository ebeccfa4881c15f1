package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"cgcookie-dl/internal/config"
	"cgcookie-dl/internal/pipeline"
)

func main() {
	courseFlag := flag.String("c", "", "Course URL or slug (repeatable via comma, overrides config)")
	manualLoginFlag := flag.Bool("manual-login", false, "Sign in by hand in the browser window instead of using credentials")
	headlessFlag := flag.Bool("headless", false, "Run the browser without a window (disables manual fallback)")
	logLevelFlag := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	// Credentials come from .env when present; absence is fine because
	// manual login does not need them.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *courseFlag != "" {
		cfg.Courses = nil
		for _, c := range strings.Split(*courseFlag, ",") {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if !strings.HasPrefix(c, "http") {
				c = config.CGCookieBaseUrl + "/courses/" + c
			}
			cfg.Courses = append(cfg.Courses, c)
		}
	}
	if *manualLoginFlag {
		cfg.ManualLogin = true
	}
	if *headlessFlag {
		cfg.Headless = true
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		fmt.Println("Provide course URLs in config.yml or with -c, and credentials in .env (or use -manual-login).")
		os.Exit(1)
	}

	log := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pipeline.Run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}
