// Renders PNG spectrograms for recorded WAV files. Useful when a detection
// looks wrong and you want to see what the microphone actually picked up.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"io/fs"
	"path/filepath"

	"github.com/eligwz/spectrogram"

	"github.com/barakplasma/Accessible-guitar-tuner/internal/audio"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/logger"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/utils"
)

func main() {
	inputDir := flag.String("in", ".", "Directory to scan for WAV files")
	outputDir := flag.String("out", "spectrograms", "Directory for the generated PNGs")
	width := flag.Int("width", 2048, "Image width in pixels")
	height := flag.Int("height", 512, "Image height in pixels (also the FFT bin count)")
	flag.Parse()

	log := logger.GetLogger()

	if err := utils.MakeDir(*outputDir); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	rendered := 0
	err := filepath.WalkDir(*inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".wav" {
			return nil
		}

		if renderErr := render(path, *outputDir, *width, *height); renderErr != nil {
			log.Warnf("Skipping %s: %v", path, renderErr)
			return nil
		}
		rendered++
		return nil
	})
	if err != nil {
		log.Fatalf("Walk failed: %v", err)
	}

	fmt.Printf("Rendered %d spectrogram(s) into %s\n", rendered, *outputDir)
}

func render(path, outputDir string, width, height int) error {
	log := logger.GetLogger()
	log.Infof("Processing %s", path)

	samples, sampleRate, err := audio.ReadWAV(path)
	if err != nil {
		return fmt.Errorf("reading WAV: %w", err)
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples")
	}
	log.Debugf("Read %d samples at %d Hz", len(samples), sampleRate)

	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// Hamming window, FFT, linear magnitude. Log scale washes out the
	// fundamental against its harmonics for clean guitar tones.
	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(height),
		false, // RECTANGLE
		false, // DFT
		true,  // MAG
		false, // LOG10
	)

	outputPath := filepath.Join(outputDir, filepath.Base(path)+".png")
	if err := spectrogram.SavePng(img, outputPath); err != nil {
		return fmt.Errorf("saving PNG: %w", err)
	}

	log.Infof("Saved %s", outputPath)
	return nil
}
