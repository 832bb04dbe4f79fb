package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-onboard/pkg/model"
	"github.com/goliatone/go-onboard/pkg/validation"
	"github.com/goliatone/go-onboard/pkg/visibility"
)

// Multipart part names understood by the submission endpoint.
const (
	PartFormID = "form_id"
	PartData   = "data"
)

// ValidationError is returned by Assemble when the answers do not validate.
type ValidationError struct {
	Errors validation.Errors
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "submission: answers are invalid"
	}
	return fmt.Sprintf("submission: answers are invalid: %s", strings.Join(e.Errors.Fields(), ", "))
}

// Payload is the transport form of a submission.
type Payload struct {
	FormID string
	Data   model.Answers
	Files  model.Files
}

// Assemble validates answers and files against form and packages them. Data
// keeps the answered visible non-file fields (and visible required ones);
// Files keeps attachments of visible file fields.
func Assemble(form model.FormDefinition, answers model.Answers, files model.Files) (Payload, error) {
	if errs := validation.Validate(form, answers, files); !errs.Valid() {
		return Payload{}, &ValidationError{Errors: errs}
	}

	payload := Payload{
		FormID: form.ID,
		Data:   model.Answers{},
		Files:  model.Files{},
	}
	for _, field := range visibility.VisibleFields(form, answers, nil) {
		if field.Type == model.FieldTypeFile {
			if attachments := files[field.Name]; len(attachments) > 0 {
				payload.Files[field.Name] = append([]model.FileAttachment(nil), attachments...)
			}
			continue
		}
		value, ok := answers[field.Name]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" && !field.Required {
			continue
		}
		payload.Data[field.Name] = value
	}
	return payload, nil
}

// Encode writes the payload as multipart/form-data and returns the content
// type, boundary included. Attachments are written under their field name in
// field-name order.
func (p Payload) Encode(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)

	if err := mw.WriteField(PartFormID, p.FormID); err != nil {
		return "", fmt.Errorf("submission: write form id: %w", err)
	}
	data, err := EncodeData(p.Data)
	if err != nil {
		return "", err
	}
	if err := mw.WriteField(PartData, data); err != nil {
		return "", fmt.Errorf("submission: write data: %w", err)
	}

	names := make([]string, 0, len(p.Files))
	for name := range p.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, attachment := range p.Files[name] {
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, attachment.Name))
			contentType := attachment.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			header.Set("Content-Type", contentType)
			part, err := mw.CreatePart(header)
			if err != nil {
				return "", fmt.Errorf("submission: create part %s: %w", name, err)
			}
			if _, err := part.Write(attachment.Content); err != nil {
				return "", fmt.Errorf("submission: write part %s: %w", name, err)
			}
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("submission: close multipart: %w", err)
	}
	return mw.FormDataContentType(), nil
}

// EncodeData serialises answers the way the submission endpoint stores them.
func EncodeData(answers model.Answers) (string, error) {
	if answers == nil {
		answers = model.Answers{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("submission: encode data: %w", err)
	}
	return string(raw), nil
}

// DecodeData parses the JSON-encoded answer string echoed by the server.
func DecodeData(raw string) (model.Answers, error) {
	answers := model.Answers{}
	if strings.TrimSpace(raw) == "" {
		return answers, nil
	}
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return model.Answers{}, fmt.Errorf("submission: decode data: %w", err)
	}
	return answers, nil
}

// FromMultipart rebuilds a Payload from a parsed multipart form. Every file
// part is read into memory.
func FromMultipart(form *multipart.Form) (Payload, error) {
	if form == nil {
		return Payload{}, fmt.Errorf("submission: multipart form is nil")
	}
	payload := Payload{Data: model.Answers{}, Files: model.Files{}}
	if values := form.Value[PartFormID]; len(values) > 0 {
		payload.FormID = strings.TrimSpace(values[0])
	}
	if payload.FormID == "" {
		return Payload{}, fmt.Errorf("submission: %s is required", PartFormID)
	}
	if values := form.Value[PartData]; len(values) > 0 {
		data, err := DecodeData(values[0])
		if err != nil {
			return Payload{}, err
		}
		payload.Data = data
	}

	for name, headers := range form.File {
		for _, fh := range headers {
			attachment, err := readAttachment(fh)
			if err != nil {
				return Payload{}, fmt.Errorf("submission: read %s: %w", name, err)
			}
			payload.Files[name] = append(payload.Files[name], attachment)
		}
	}
	return payload, nil
}

func readAttachment(fh *multipart.FileHeader) (model.FileAttachment, error) {
	file, err := fh.Open()
	if err != nil {
		return model.FileAttachment{}, err
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return model.FileAttachment{}, err
	}
	return model.FileAttachment{
		Name:        fh.Filename,
		Size:        int64(buf.Len()),
		ContentType: fh.Header.Get("Content-Type"),
		Content:     buf.Bytes(),
	}, nil
}

// Client identifies the person submitting a form.
type Client struct {
	Name  string
	Email string
}

// New creates the pending record the submission endpoint stores for payload.
// Form name and client details are snapshotted.
func New(form model.FormDefinition, client Client, payload Payload, now time.Time) model.SubmissionRecord {
	data := payload.Data.Clone()
	var files model.Files
	if len(payload.Files) > 0 {
		files = make(model.Files, len(payload.Files))
		for name, attachments := range payload.Files {
			files[name] = append([]model.FileAttachment(nil), attachments...)
		}
	}
	return model.SubmissionRecord{
		ID:          uuid.NewString(),
		FormID:      form.ID,
		FormName:    form.Name,
		ClientName:  strings.TrimSpace(client.Name),
		ClientEmail: strings.TrimSpace(client.Email),
		Data:        data,
		Files:       files,
		Status:      model.SubmissionPending,
		SubmittedAt: now,
	}
}
