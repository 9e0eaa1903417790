package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ivlev/beat2video/internal/config"
	"github.com/ivlev/beat2video/internal/timeline"
)

const defaultBeatDuration = 5.0

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <script.txt>",
		Short: "Create a project file from a plain-text script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args[0])
		},
	}
	f := cmd.Flags()
	f.String("title", "", "Текст титульного бита (пусто - без титула)")
	f.String("credits", "", "Текст финальных титров")
	f.Int("words-per-beat", 30, "Примерное число слов в одном бите")
	f.Float64("duration", defaultBeatDuration, "Длительность каждого бита в секундах")
	f.String("aspect", string(config.Aspect16x9), "Соотношение сторон: 16:9, 9:16, 1:1")
	f.String("resolution", string(config.Res1080p), "Разрешение: 1080p, 2K, 4K")
	f.String("out", "", "Путь к файлу проекта (по умолчанию input/projects/project_<время>.yaml)")
	return cmd
}

func runInit(cmd *cobra.Command, scriptPath string) error {
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	f := cmd.Flags()
	title, _ := f.GetString("title")
	credits, _ := f.GetString("credits")
	words, _ := f.GetInt("words-per-beat")
	duration, _ := f.GetFloat64("duration")
	aspect, _ := f.GetString("aspect")
	res, _ := f.GetString("resolution")
	out, _ := f.GetString("out")

	segments := timeline.SegmentScript(string(script), words)
	if len(segments) == 0 {
		return fmt.Errorf("script %s has no text", scriptPath)
	}

	project := timeline.NewProject()
	project.AspectRatio = config.AspectRatio(aspect)
	project.Resolution = config.Resolution(res)
	project.Beats = timeline.Assemble(title, credits, segments, duration)
	if err := project.Validate(); err != nil {
		return err
	}

	if out == "" {
		out = timeline.GenerateProjectPath()
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	if err := timeline.WriteProject(project, out); err != nil {
		return err
	}

	fmt.Printf("[+++] Проект сохранен: %s (битов: %d)\n", out, len(project.Beats))
	return nil
}

func newSetDurationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-duration <project.yaml> <seconds>",
		Short: "Set every beat of a project to the same duration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("bad duration %q: %w", args[1], err)
			}
			return runSetDuration(args[0], d)
		},
	}
}

func runSetDuration(path string, d float64) error {
	project, err := timeline.ReadProject(path)
	if err != nil {
		return err
	}
	if err := project.SetGlobalDuration(d); err != nil {
		return err
	}
	if err := timeline.WriteProject(project, path); err != nil {
		return err
	}
	fmt.Printf("[+++] Длительность %d битов установлена: %.2fs (кадров: %d)\n",
		len(project.Beats), d, timeline.TotalFrames(project.Beats, config.FrameRate))
	return nil
}
