package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"markcanvas/internal/background"
	"markcanvas/internal/viewport"
	"markcanvas/pkg/geometry"
)

func newFitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fit <image> <view-width> <view-height>",
		Short: "Print the layout that fits an image into a view",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, format, err := background.DecodeSize(args[0])
			if err != nil {
				return err
			}
			view, err := parseSize(args[1], args[2])
			if err != nil {
				return err
			}
			l := viewport.FitToView(size, view)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Image: %s (%s, %.0fx%.0f)\n", args[0], format, size.Width, size.Height)
			fmt.Fprintf(out, "View:  %.0fx%.0f\n", view.Width, view.Height)
			fmt.Fprintf(out, "Zoom:  %.6f\n", l.Zoom)
			fmt.Fprintf(out, "Pan:   %.3f, %.3f\n", l.OffsetX, l.OffsetY)
			return nil
		},
	}
}

func parseSize(w, h string) (geometry.Size, error) {
	width, err := strconv.ParseFloat(w, 64)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("invalid view width %q: %w", w, err)
	}
	height, err := strconv.ParseFloat(h, 64)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("invalid view height %q: %w", h, err)
	}
	if width <= 0 || height <= 0 {
		return geometry.Size{}, fmt.Errorf("view size must be positive, got %sx%s", w, h)
	}
	return geometry.Size{Width: width, Height: height}, nil
}
