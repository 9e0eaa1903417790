package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/beat2video/internal/config"
	"github.com/ivlev/beat2video/internal/engine"
	"github.com/ivlev/beat2video/internal/publish"
	"github.com/ivlev/beat2video/internal/source"
	"github.com/ivlev/beat2video/internal/system"
	"github.com/ivlev/beat2video/internal/timeline"
	"github.com/ivlev/beat2video/internal/video"
)

func newRenderCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [project.yaml]",
		Short: "Render a project to a video file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runRender(cmd, path, version)
		},
	}

	f := cmd.Flags()
	f.String("aspect", "", "Соотношение сторон: 16:9, 9:16, 1:1 (по умолчанию из проекта)")
	f.String("resolution", "", "Разрешение: 1080p, 2K, 4K (по умолчанию из проекта)")
	f.Float64("duration", 0, "Общая длительность каждого бита в секундах (0 - из проекта)")
	f.String("grading", "", "Пресет цветокоррекции: KODAK_5219, FUJI_3513, AGFA_VISTA, EKTACHROME")
	f.String("output", getenvDefault("BEAT2VIDEO_OUTPUT_DIR", "output"), "Папка для готового видео")
	f.String("ffmpeg", getenvDefault("BEAT2VIDEO_FFMPEG", "ffmpeg"), "Путь к ffmpeg")
	f.String("encoder", os.Getenv("BEAT2VIDEO_ENCODER"), "Принудительный энкодер ffmpeg (по умолчанию - автоопределение)")
	f.Bool("realtime", false, "Выдавать кадры в реальном времени (30 FPS)")
	f.Bool("stats", false, "Показать отчет о производительности")
	f.Int("prefetch", config.DefaultPrefetch, "На сколько битов вперед декодировать изображения")
	f.Int("bitrate", config.DefaultBitrate, "Битрейт видео, бит/с")
	f.String("s3-bucket", os.Getenv("BEAT2VIDEO_S3_BUCKET"), "Дополнительно загрузить видео в S3")
	f.String("s3-prefix", os.Getenv("BEAT2VIDEO_S3_PREFIX"), "Префикс ключа в S3")
	return cmd
}

func runRender(cmd *cobra.Command, path, version string) error {
	system.InitResourceLimits(2048)

	if path == "" {
		latest, err := timeline.FindLatestProject(timeline.ProjectsDir)
		if err != nil {
			return fmt.Errorf("%w. Создайте проект командой init", err)
		}
		path = latest
		fmt.Printf("[*] Выбран проект: %s\n", path)
	}

	project, err := timeline.ReadProject(path)
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, project); err != nil {
		return err
	}
	if err := project.Validate(); err != nil {
		return err
	}

	cfg := renderConfig(cmd, version)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cmd)
	defer logger.Sync()

	codec, err := system.DetectCodec(cfg.FFmpegPath, cfg.VideoEncoder)
	if err != nil {
		return fmt.Errorf("%w: %v", video.ErrEncoderUnavailable, err)
	}
	if codec != system.CodecVP9 && codec != system.CodecH264 {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", codec.Name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return err
	}

	w, h, _ := project.CanvasSize()
	beats := project.Snapshot()
	fmt.Println("--- [BEAT2VIDEO] ---")
	fmt.Printf("[*] Проект: %s | Битов: %d | Кадров: %d\n", path, len(beats), timeline.TotalFrames(beats, config.FrameRate))
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Энкодер: %s (%s)\n", w, h, config.FrameRate, codec.Name, codec.Container)
	fmt.Println("--------------------")

	bar := progressbar.Default(100, "Рендер")
	driver := engine.NewDriver(cfg, project.Settings, video.NewFFmpegEncoder(cfg.FFmpegPath, logger), sink)
	driver.Codec = codec
	driver.Loader = source.NewLoader()
	driver.Logger = logger
	driver.OnProgress = func(p int) { bar.Set(p) }

	res, err := driver.Run(ctx, beats)
	bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("рендер прерван: %w", err)
	}
	if res.Frames == 0 {
		fmt.Println("[!] В проекте нет битов, видео не создано")
		return nil
	}

	fmt.Printf("[+++] Успех! Результат: %s (%s)\n", res.Location, system.FormatBytes(uint64(res.Bytes)))
	return nil
}

func applyOverrides(cmd *cobra.Command, project *timeline.Project) error {
	if aspect, _ := cmd.Flags().GetString("aspect"); aspect != "" {
		project.AspectRatio = config.AspectRatio(aspect)
	}
	if res, _ := cmd.Flags().GetString("resolution"); res != "" {
		project.Resolution = config.Resolution(res)
	}
	if preset, _ := cmd.Flags().GetString("grading"); preset != "" {
		g, err := config.GradingPreset(preset)
		if err != nil {
			return err
		}
		project.Grading = g
	}
	if d, _ := cmd.Flags().GetFloat64("duration"); d != 0 {
		if err := project.SetGlobalDuration(d); err != nil {
			return err
		}
		fmt.Printf("[*] Длительность всех битов установлена: %.2fs\n", d)
	}
	return nil
}

func renderConfig(cmd *cobra.Command, version string) config.Config {
	f := cmd.Flags()
	cfg := config.Config{BuildVersion: version, S3Region: os.Getenv("AWS_REGION")}
	cfg.OutputDir, _ = f.GetString("output")
	cfg.FFmpegPath, _ = f.GetString("ffmpeg")
	cfg.VideoEncoder, _ = f.GetString("encoder")
	cfg.Realtime, _ = f.GetBool("realtime")
	cfg.ShowStats, _ = f.GetBool("stats")
	cfg.Prefetch, _ = f.GetInt("prefetch")
	cfg.Bitrate, _ = f.GetInt("bitrate")
	cfg.S3Bucket, _ = f.GetString("s3-bucket")
	cfg.S3Prefix, _ = f.GetString("s3-prefix")
	cfg.Defaults()
	return cfg
}

func buildSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (publish.Sink, error) {
	file := &publish.FileSink{Dir: cfg.OutputDir, Logger: logger}
	if cfg.S3Bucket == "" {
		return file, nil
	}
	s3, err := publish.NewS3Sink(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, logger)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[*] Видео будет загружено в s3://%s/%s\n", cfg.S3Bucket, s3.Key(""))
	return publish.MultiSink{file, s3}, nil
}
