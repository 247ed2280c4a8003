package abitus

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/rotisserie/eris"
)

const infoPath = "/ocorrencias/informacoes-desaparecido"

func (c *httpClient) OccurrenceInfo(ctx context.Context, occurrenceID int64) ([]OccurrenceInfo, error) {
	q := url.Values{"ocorrenciaId": {fmt.Sprint(occurrenceID)}}
	resp, err := c.do(ctx, request{op: "occurrence info", method: http.MethodGet, path: infoPath, query: q})
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return []OccurrenceInfo{}, nil
	}
	if !resp.ok() {
		return nil, resp.err("occurrence info")
	}

	var raw []apiOccurrenceInfo
	if err := decode("occurrence info", resp.body, &raw); err != nil {
		return nil, err
	}
	out := make([]OccurrenceInfo, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.info())
	}
	return out, nil
}

// AddOccurrenceInfo is sent once: a tip is not idempotent.
func (c *httpClient) AddOccurrenceInfo(ctx context.Context, tip Tip) (*OccurrenceInfo, error) {
	if tip.OccurrenceID <= 0 {
		return nil, eris.New("abitus: tip requires an occurrence id")
	}
	if tip.Date == "" {
		tip.Date = c.nowFunc().In(Cuiaba).Format("2006-01-02")
	}

	body, contentType, err := tipForm(tip.Files)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"informacao": {tip.Info},
		"descricao":  {tip.Description},
		"data":       {tip.Date},
		"ocoId":      {fmt.Sprint(tip.OccurrenceID)},
	}

	resp, err := c.do(ctx, request{
		op:          "add occurrence info",
		method:      http.MethodPost,
		path:        infoPath,
		query:       q,
		body:        body,
		contentType: contentType,
		once:        true,
	})
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, eris.Wrap(ErrEndpointUnavailable, "abitus: add occurrence info")
	}
	if !resp.ok() {
		return nil, resp.err("add occurrence info")
	}

	var raw apiOccurrenceInfo
	if err := decode("add occurrence info", resp.body, &raw); err != nil {
		return nil, err
	}
	info := raw.info()
	return &info, nil
}

// tipForm encodes the attachments as multipart "files" parts.
func tipForm(files []Attachment) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, f := range files {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("anexo-%d", i+1)
		}
		ct := f.ContentType
		if ct == "" {
			ct = http.DetectContentType(f.Data)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, name))
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", eris.Wrap(err, "abitus: create form part")
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", eris.Wrap(err, "abitus: write form part")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", eris.Wrap(err, "abitus: close form")
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (a apiOccurrenceInfo) info() OccurrenceInfo {
	attachments := a.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return OccurrenceInfo{
		ID:           a.ID,
		OccurrenceID: a.OccurrenceID,
		Info:         a.Info,
		Date:         a.Date,
		Attachments:  attachments,
	}
}
