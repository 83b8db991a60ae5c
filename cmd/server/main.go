package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ytdlweb/config"
	controllers "ytdlweb/controller"
	"ytdlweb/hub"
	"ytdlweb/router"
	"ytdlweb/services"
	utils "ytdlweb/utils"
	ytdlp "ytdlweb/yt-dlp"

	"github.com/rs/cors"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}

	if err := utils.EnsureRootDirectory(cfg.DownloadDir); err != nil {
		log.Fatalf("[Startup] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.YtDlpInstall {
		if err := ytdlp.Install(ctx); err != nil {
			log.Fatalf("[Startup] %v", err)
		}
	}

	h := hub.New()
	go h.Run(ctx)

	engine := ytdlp.NewRunner(cfg.YtDlpPath, time.Duration(cfg.ProgressIntervalMS)*time.Millisecond)
	info := services.NewInfoService(engine)
	downloads := services.NewDownloadService(engine, h, services.DownloadSettings{
		DownloadDir:            cfg.DownloadDir,
		MergeOutputFormat:      cfg.MergeOutputFormat,
		MaxConcurrentDownloads: cfg.MaxConcurrentDownloads,
	})

	ctrl := controllers.New(info, downloads, h, cfg.ProjectName, cfg.APIPrefix)
	r, err := router.SetupRouter(ctrl, cfg.APIPrefix)
	if err != nil {
		log.Fatalf("[Startup] templates: %v", err)
	}

	if cfg.CleanupAfterHours > 0 {
		go cleanupLoop(ctx, cfg.DownloadDir, time.Duration(cfg.CleanupAfterHours)*time.Hour)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "HX-Request", "HX-Target", "HX-Current-URL"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("%s %s running at http://%s%s", cfg.ProjectName, cfg.Version, cfg.Addr(), cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func cleanupLoop(ctx context.Context, dir string, maxAge time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		if err := utils.DeleteFilesOlderThan(dir, maxAge); err != nil {
			log.Printf("Cleanup error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
