package llm

// Fixed metadata reported for every listed model. Clients only look at the
// ids; the rest mirrors what OpenAI's /v1/models returned for gpt-3.5-turbo.
const (
	modelCreated      = 1677610602
	modelOwner        = "openai"
	permissionID      = "modelperm-M56FXnG1AsIr3SXq8BYPvXJA"
	permissionCreated = 1679602088
)

// ModelList is the body of GET /v1/models.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// Model is one entry of a ModelList.
type Model struct {
	ID         string            `json:"id"`
	Object     string            `json:"object"`
	Created    int64             `json:"created"`
	OwnedBy    string            `json:"owned_by"`
	Permission []ModelPermission `json:"permission"`
	Root       string            `json:"root"`
	Parent     *string           `json:"parent"`
}

// ModelPermission is the placeholder permission block attached to a Model.
type ModelPermission struct {
	ID                 string  `json:"id"`
	Object             string  `json:"object"`
	Created            int64   `json:"created"`
	AllowCreateEngine  bool    `json:"allow_create_engine"`
	AllowSampling      bool    `json:"allow_sampling"`
	AllowLogprobs      bool    `json:"allow_logprobs"`
	AllowSearchIndices bool    `json:"allow_search_indices"`
	AllowView          bool    `json:"allow_view"`
	AllowFineTuning    bool    `json:"allow_fine_tuning"`
	Organization       string  `json:"organization"`
	Group              *string `json:"group"`
	IsBlocking         bool    `json:"is_blocking"`
}

// NewModelList returns a list with one entry per id, in the given order.
func NewModelList(ids []string) ModelList {
	data := make([]Model, 0, len(ids))
	for _, id := range ids {
		data = append(data, Model{
			ID:      id,
			Object:  "model",
			Created: modelCreated,
			OwnedBy: modelOwner,
			Permission: []ModelPermission{{
				ID:                 permissionID,
				Object:             "model_permission",
				Created:            permissionCreated,
				AllowCreateEngine:  false,
				AllowSampling:      true,
				AllowLogprobs:      true,
				AllowSearchIndices: false,
				AllowView:          true,
				AllowFineTuning:    false,
				Organization:       "*",
				IsBlocking:         false,
			}},
			Root: id,
		})
	}

	return ModelList{
		Object: "list",
		Data:   data,
	}
}
