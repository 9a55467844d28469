package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/adamancini/updsync/internal/version"
)

// Defaults for the gated mirror.
const (
	DefaultMirrorBaseURL = "https://mirrorchyan.com/api/resources"
	DefaultUserAgent     = "updsync"
)

// MirrorConfig configures a MirrorResolver.
type MirrorConfig struct {
	BaseURL    string
	ResourceID string
	UserAgent  string
	Platform   Platform
	Channel    string
	Compare    version.Comparator
}

// MirrorResolver queries the MirrorChyan "latest" endpoint for one resource.
type MirrorResolver struct {
	client Doer
	cfg    MirrorConfig
}

// mirrorResponse is the envelope returned by every mirror endpoint.
type mirrorResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data *mirrorData `json:"data"`
}

type mirrorData struct {
	VersionName   string `json:"version_name"`
	VersionNumber uint64 `json:"version_number"`
	URL           string `json:"url"`
	SHA256        string `json:"sha256"`
	Channel       string `json:"channel"`
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	UpdateType    string `json:"update_type"`
	ReleaseNote   string `json:"release_note"`
	Filesize      int64  `json:"filesize"`
	CDKExpired    int64  `json:"cdk_expired_time"`
}

// NewMirrorResolver creates a gated-mirror resolver.
func NewMirrorResolver(client Doer, cfg MirrorConfig) *MirrorResolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultMirrorBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Compare == nil {
		cfg.Compare = version.CompareSemantic
	}
	return &MirrorResolver{client: client, cfg: cfg}
}

// RequiresEntitlement is always true: URLs are only handed out with a CDK.
func (r *MirrorResolver) RequiresEntitlement() bool { return true }

// Resolve queries the mirror. Without req.CDK an available update carries an
// empty DownloadURL.
func (r *MirrorResolver) Resolve(ctx context.Context, req Request) Result {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint(req), nil)
	if err != nil {
		return transportError(err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusInternalServerError {
		return CheckError{Code: http.StatusInternalServerError, Message: "service unavailable", Kind: KindServiceUnavailable}
	}

	payload, err := readPayload(resp.Body)
	if err != nil {
		return transportError(err)
	}

	var envelope mirrorResponse
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return unknownError
	}
	if envelope.Code != 0 {
		return CheckError{Code: envelope.Code, Message: envelope.Msg, Kind: KindBusiness}
	}
	if envelope.Data == nil {
		return CheckError{Code: -1, Message: "empty data", Kind: KindMalformed}
	}

	data := envelope.Data
	if data.VersionName == "" || !version.IsNewer(r.cfg.Compare, req.CurrentVersion, data.VersionName) {
		return NoUpdate{CurrentVersion: req.CurrentVersion}
	}

	available := UpdateAvailable{
		Version:     data.VersionName,
		ReleaseNote: data.ReleaseNote,
		SHA256:      data.SHA256,
		Size:        data.Filesize,
	}
	if req.CDK == "" {
		return available
	}
	if data.URL == "" {
		return CheckError{Code: -1, Message: "download url empty", Kind: KindMalformed}
	}
	available.DownloadURL = data.URL
	return available
}

func (r *MirrorResolver) endpoint(req Request) string {
	q := url.Values{}
	q.Set("current_version", req.CurrentVersion)
	q.Set("user_agent", r.cfg.UserAgent)
	if r.cfg.Platform.OS != "" {
		q.Set("os", r.cfg.Platform.OS)
	}
	if r.cfg.Platform.Arch != "" {
		q.Set("arch", r.cfg.Platform.Arch)
	}
	if r.cfg.Channel != "" {
		q.Set("channel", r.cfg.Channel)
	}
	if req.CDK != "" {
		q.Set("cdk", req.CDK)
	}
	return fmt.Sprintf("%s/%s/latest?%s", r.cfg.BaseURL, url.PathEscape(r.cfg.ResourceID), q.Encode())
}
