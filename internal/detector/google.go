package detector

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"google.golang.org/api/option"
)

// GoogleDetector resolves ambiguous text through the Google Cloud Translation
// detection endpoint. It satisfies NetworkDetector.
type GoogleDetector struct {
	client *translate.Client
}

// NewGoogleDetector creates the client. credentialsFile may be empty, in
// which case application default credentials apply.
func NewGoogleDetector(ctx context.Context, credentialsFile string) (*GoogleDetector, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate client: %w", err)
	}
	return &GoogleDetector{client: client}, nil
}

func (g *GoogleDetector) DetectLanguage(ctx context.Context, text string) (string, float64, error) {
	detections, err := g.client.DetectLanguage(ctx, []string{text})
	if err != nil {
		return "", 0, fmt.Errorf("detect language: %w", err)
	}
	if len(detections) == 0 || len(detections[0]) == 0 {
		return "", 0, fmt.Errorf("no detection returned")
	}
	best := detections[0][0]
	base, _ := best.Language.Base()
	return base.String(), best.Confidence, nil
}

func (g *GoogleDetector) Close() error {
	return g.client.Close()
}
