package renderer

import "github.com/df07/go-recursive-raytracer/pkg/core"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples taken
	AverageSamples float64 // Average samples per pixel
	MaxSamples     int     // Maximum samples allowed per pixel
	MinSamples     int     // Minimum samples taken per pixel
	MaxSamplesUsed int     // Maximum samples actually used by any pixel
	TotalBounces   int     // Scatter events across all traced paths
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum       core.Color // RGB accumulator for final result
	LuminanceAccum   float64    // Luminance accumulator for variance
	LuminanceSqAccum float64    // Luminance squared for variance
	SampleCount      int        // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Color) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// GetColor returns the current average linear color for this pixel
func (ps *PixelStats) GetColor() core.Color {
	if ps.SampleCount == 0 {
		return core.Black()
	}
	return ps.ColorAccum.Divide(float64(ps.SampleCount))
}

// Variance returns the luminance variance of the samples taken so far
func (ps *PixelStats) Variance() float64 {
	if ps.SampleCount == 0 {
		return 0
	}
	n := float64(ps.SampleCount)
	mean := ps.LuminanceAccum / n
	return max(0, ps.LuminanceSqAccum/n-mean*mean)
}

// summarize computes render statistics over a pixel buffer
func summarize(pixelStats [][]PixelStats, targetSamples, bounces int) RenderStats {
	stats := RenderStats{
		MaxSamples:   targetSamples,
		MinSamples:   -1,
		TotalBounces: bounces,
	}
	for y := range pixelStats {
		for x := range pixelStats[y] {
			count := pixelStats[y][x].SampleCount
			stats.TotalPixels++
			stats.TotalSamples += count
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, count)
			if stats.MinSamples < 0 || count < stats.MinSamples {
				stats.MinSamples = count
			}
		}
	}
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	stats.MinSamples = max(stats.MinSamples, 0)
	return stats
}
