package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gowebpki/jcs"
	"github.com/oklog/ulid/v2"

	"github.com/nftbazaar/marketgate/internal/adapter"
	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
)

// Result describes a pinned document
type Result struct {
	CID         string `json:"cid"`
	IPFSURL     string `json:"ipfs_url"`
	GatewayURL  string `json:"gateway_url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Service pins files and metadata documents to a Pinata-compatible provider
type Service struct {
	httpClient adapter.HTTPClient
	cfg        *config.PinningConfig
}

// NewService creates a new pinning service
func NewService(httpClient adapter.HTTPClient, cfg *config.PinningConfig) *Service {
	return &Service{httpClient: httpClient, cfg: cfg}
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PinFile uploads a file and pins it. The whole file is buffered to sniff
// its content type and enforce the size cap before anything leaves the
// process. Provider errors are surfaced verbatim so the caller sees the
// exact rejection reason.
func (s *Service) PinFile(ctx context.Context, name string, r io.Reader) (*Result, error) {
	maxSize := s.cfg.MaxFileSize
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, &domain.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("file exceeds the %dMB limit", maxSize/(1024*1024)),
		}
	}
	if len(data) == 0 {
		return nil, &domain.ValidationError{Field: "file", Message: "file is empty"}
	}

	contentType := mimetype.Detect(data).String()
	return s.pin(ctx, name, data, contentType)
}

// PinJSON canonicalizes a metadata document and pins the canonical bytes, so
// the same document always maps to the same CID regardless of field order.
func (s *Service) PinJSON(ctx context.Context, name string, v interface{}) (*Result, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize metadata: %w", err)
	}
	return s.pin(ctx, name, canonical, "application/json")
}

func (s *Service) pin(ctx context.Context, name string, data []byte, contentType string) (*Result, error) {
	if name == "" {
		name = "upload"
	}
	uploadID := ulid.Make().String()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	meta, err := json.Marshal(map[string]interface{}{
		"name": name,
		"keyvalues": map[string]string{
			"upload_id":    uploadID,
			"content_type": contentType,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build pin metadata: %w", err)
	}
	if err := writer.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + s.cfg.Token,
	}
	respBody, err := s.httpClient.Post(ctx, s.cfg.APIURL+"/pinning/pinFileToIPFS",
		writer.FormDataContentType(), headers, &body)
	if err != nil {
		return nil, err
	}

	var resp pinResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode pin response: %w", err)
	}
	if resp.IpfsHash == "" {
		return nil, fmt.Errorf("pin response carries no CID")
	}

	return &Result{
		CID:         resp.IpfsHash,
		IPFSURL:     "ipfs://" + resp.IpfsHash,
		GatewayURL:  fmt.Sprintf("https://%s/ipfs/%s", s.cfg.GatewayHost, resp.IpfsHash),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}
