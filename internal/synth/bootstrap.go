package synth

import (
	"github.com/mark3labs/swagger2postman/internal/collection"
	"github.com/mark3labs/swagger2postman/internal/workflow"
)

const (
	tokenPath            = "/api/token"
	permissionCreatePath = "/v1/permission/create"
	permissionListPath   = "/v1/permission/list"
)

const permissionCreateBody = `{
  "action": "{{action}}",
  "description": "{{name}}",
  "isSystem": 0,
  "name": "{{name}}",
  "nameGroup": "{{group}}",
  "permissionCode": "{{permissionCode}}",
  "showMenu": 0
}`

// Bootstrap returns the fixed items placed ahead of every controller folder:
// the token exchange and the permission fixtures.
func Bootstrap(urlKey string) ([]collection.Item, error) {
	token, err := requestTokenItem(urlKey)
	if err != nil {
		return nil, err
	}
	return []collection.Item{token, permissionFolder(urlKey)}, nil
}

func requestTokenItem(urlKey string) (collection.Item, error) {
	creds := collection.NewObject().
		Set("username", "admin").
		Set("password", "admin123654").
		Set("grant_type", "password")
	raw, err := collection.PrettyJSON(creds)
	if err != nil {
		return collection.Item{}, err
	}
	return collection.Item{
		Name:  "requestToken",
		Event: []collection.Event{workflow.CaptureToken().Event()},
		Request: &collection.Request{
			Auth: &collection.Auth{
				Type: "basic",
				Basic: []collection.AuthAttribute{
					{Key: "username", Value: collection.VarRef("clientId"), Type: "string"},
					{Key: "password", Value: collection.VarRef("clientSecret"), Type: "string"},
				},
			},
			Method: "POST",
			Header: []collection.Header{},
			Body:   collection.RawJSONBody(raw),
			URL:    collection.NewURL(urlKey, tokenPath),
		},
	}, nil
}

func permissionFolder(urlKey string) collection.Item {
	return collection.Item{
		Name: "permission",
		Item: []collection.Item{
			{
				Name: "create",
				Request: &collection.Request{
					Method: "POST",
					Header: []collection.Header{
						{Key: "Accept", Value: contentTypeJSON},
						{Key: "Content-Type", Value: contentTypeJSON},
					},
					Body: collection.RawJSONBody(permissionCreateBody),
					URL:  collection.NewURL(urlKey, permissionCreatePath),
				},
			},
			{
				Name:  "list",
				Event: []collection.Event{workflow.CapturePermissions().Event()},
				Request: &collection.Request{
					Method: "GET",
					Header: []collection.Header{{Key: "Accept", Value: contentTypeJSON}},
					URL:    collection.NewURL(urlKey, permissionListPath),
				},
			},
		},
	}
}
