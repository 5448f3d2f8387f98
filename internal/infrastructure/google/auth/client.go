package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// Scopes covers every Google API the pipeline touches under one session.
var Scopes = []string{
	drive.DriveScope,
	docs.DocumentsReadonlyScope,
	sheets.SpreadsheetsScope,
}

// NewHTTPClient returns an authorised client. An empty credentialsFile falls back to
// Application Default Credentials.
func NewHTTPClient(ctx context.Context, credentialsFile string) (*http.Client, error) {
	ts, err := TokenSource(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func TokenSource(ctx context.Context, credentialsFile string) (oauth2.TokenSource, error) {
	path := strings.TrimSpace(credentialsFile)
	if path == "" {
		creds, err := google.FindDefaultCredentials(ctx, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("find default google credentials: %w", err)
		}
		return creds.TokenSource, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	return creds.TokenSource, nil
}
