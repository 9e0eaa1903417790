package cli

import (
	"fmt"
	"image"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/beat2video/internal/analyzer"
	"github.com/ivlev/beat2video/internal/source"
	"github.com/ivlev/beat2video/internal/timeline"
)

func newFrameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frame <project.yaml>",
		Short: "Suggest vertical offsets from image content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			variant, _ := cmd.Flags().GetString("detector")
			return runFrame(cmd, args[0], variant, force)
		},
	}
	cmd.Flags().Bool("force", false, "Перезаписать уже заданные смещения")
	cmd.Flags().String("detector", "contrast", "Детектор областей интереса")
	return cmd
}

func runFrame(cmd *cobra.Command, path, variant string, force bool) error {
	project, err := timeline.ReadProject(path)
	if err != nil {
		return err
	}
	detector, err := analyzer.NewDetector(variant)
	if err != nil {
		return err
	}
	w, h, err := project.CanvasSize()
	if err != nil {
		return err
	}
	canvas := image.Pt(w, h)

	loader := source.NewLoader()
	offsets := make([]float64, len(project.Beats))
	done := make([]bool, len(project.Beats))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(4)
	for i, b := range project.Beats {
		if b.AssetURL == "" || (b.VerticalOffsetPercent != 0 && !force) {
			continue
		}
		g.Go(func() error {
			img, err := loader.Load(ctx, b.AssetURL)
			if err != nil {
				fmt.Printf("[!] Бит %s: не удалось загрузить изображение: %v\n", b.ID, err)
				return nil
			}
			off, err := analyzer.Frame(detector, img, canvas)
			if err != nil {
				fmt.Printf("[!] Бит %s: анализ не удался: %v\n", b.ID, err)
				return nil
			}
			offsets[i], done[i] = off, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	changed := 0
	for i := range project.Beats {
		if done[i] {
			project.Beats[i].VerticalOffsetPercent = offsets[i]
			changed++
			fmt.Printf("[*] %s: смещение %.1f%%\n", project.Beats[i].ID, offsets[i])
		}
	}
	if changed == 0 {
		fmt.Println("[*] Нечего обновлять")
		return nil
	}
	if err := timeline.WriteProject(project, path); err != nil {
		return err
	}
	fmt.Printf("[+++] Обновлено битов: %d\n", changed)
	return nil
}
