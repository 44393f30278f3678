package azure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Deployment maps a public model name to an Azure deployment name.
type Deployment struct {
	Model      string `toml:"model" json:"model" mapstructure:"model"`
	Deployment string `toml:"deployment" json:"deployment" mapstructure:"deployment"`
}

// Deployments is an ordered model → deployment mapping. Order is the order
// the mapping was configured in and is what the model list reports.
type Deployments []Deployment

// Lookup returns the deployment configured for model.
func (d Deployments) Lookup(model string) (string, bool) {
	for _, dep := range d {
		if dep.Model == model {
			return dep.Deployment, dep.Deployment != ""
		}
	}
	return "", false
}

// Models returns the configured model names in mapping order.
func (d Deployments) Models() []string {
	models := make([]string, 0, len(d))
	for _, dep := range d {
		models = append(models, dep.Model)
	}
	return models
}

// Set adds or replaces the deployment for model. A replaced entry keeps its
// position.
func (d Deployments) Set(model, deployment string) Deployments {
	for i := range d {
		if d[i].Model == model {
			d[i].Deployment = deployment
			return d
		}
	}
	return append(d, Deployment{Model: model, Deployment: deployment})
}

// Unset removes model from the mapping and reports whether it was present.
func (d Deployments) Unset(model string) (Deployments, bool) {
	for i := range d {
		if d[i].Model == model {
			return append(d[:i:i], d[i+1:]...), true
		}
	}
	return d, false
}

// ParseDeploymentsJSON parses a JSON object such as
// {"gpt-4":"dep1","gpt-3.5":"dep2"} into Deployments, keeping key order.
// A repeated key keeps its first position and its last value.
func ParseDeploymentsJSON(data []byte) (Deployments, error) {
	var d Deployments
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return d, nil
}

// UnmarshalJSON decodes a JSON object of model → deployment strings in
// document order.
func (d *Deployments) UnmarshalJSON(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding deployments: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("decoding deployments: expected a JSON object")
	}

	var out Deployments
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding deployments: %w", err)
		}
		model, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decoding deployments: unexpected key %v", keyTok)
		}

		var deployment string
		if err := dec.Decode(&deployment); err != nil {
			return fmt.Errorf("decoding deployment for %q: %w", model, err)
		}
		out = out.Set(model, deployment)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding deployments: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("decoding deployments: trailing data after object")
	}

	*d = out
	return nil
}

// MarshalJSON encodes the mapping as a JSON object in mapping order.
func (d Deployments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, dep := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(dep.Model)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(dep.Deployment)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
