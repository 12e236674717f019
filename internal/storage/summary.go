package storage

import "quantum-sensing/internal/models"

type Summary struct {
	Count       int
	MinReading  int
	MaxReading  int
	MeanReading float64
	LastElapsed float64
}

func Summarize(samples []models.Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	sum := Summary{
		Count:      len(samples),
		MinReading: samples[0].Reading,
		MaxReading: samples[0].Reading,
	}
	total := 0
	for _, s := range samples {
		total += s.Reading
		if s.Reading < sum.MinReading {
			sum.MinReading = s.Reading
		}
		if s.Reading > sum.MaxReading {
			sum.MaxReading = s.Reading
		}
		if s.Elapsed > sum.LastElapsed {
			sum.LastElapsed = s.Elapsed
		}
	}
	sum.MeanReading = float64(total) / float64(len(samples))
	return sum
}
