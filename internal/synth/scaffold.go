package synth

import (
	"time"

	"github.com/google/uuid"

	"github.com/mark3labs/swagger2postman/internal/collection"
	"github.com/mark3labs/swagger2postman/internal/workflow"
)

// Environment roots and the variables holding their base URLs.
const (
	LocalRoot  = "local"
	RemoteRoot = "remote"

	LocalURLKey  = "localUrl"
	RemoteURLKey = "remoteUrl"
)

// Credential placeholders for the token exchange.
const (
	clientIDPlaceholder     = "abc_client"
	clientSecretPlaceholder = "abc123"
)

// FormatDate renders t in the dd/MM/yyyy HH:mm:ss form the runner script uses.
func FormatDate(t time.Time) string { return t.Format(workflow.DateLayout) }

// NewScaffold returns the collection skeleton: metadata, bearer auth, global
// scripts, variables and two empty roots, "local" then "remote".
func NewScaffold(env EnvironmentConfig, now time.Time) *collection.Collection {
	date := FormatDate(now)
	var localURL, remoteURL string
	if env.Local != nil {
		localURL = env.Local.URL
	}
	if env.Remote != nil {
		remoteURL = env.Remote.URL
	}

	return &collection.Collection{
		Info: collection.Info{
			PostmanID:   collectionID(env.CollectionName),
			Name:        env.CollectionName + " [" + date + "]",
			Description: "API Documentation For " + env.CollectionName,
			Schema:      collection.SchemaV210,
		},
		Auth: &collection.Auth{
			Type: "bearer",
			Bearer: []collection.AuthAttribute{
				{Key: "token", Value: collection.VarRef(workflow.AccessToken.Name), Type: "string"},
			},
		},
		Event: []collection.Event{
			workflow.StampCurrentDate().Event(),
			workflow.Noop().Event(),
		},
		Variable: []collection.Variable{
			stringVar(LocalURLKey, "localhost:"+localURL),
			stringVar(RemoteURLKey, "https://"+remoteURL),
			stringVar("clientId", clientIDPlaceholder),
			stringVar("clientSecret", clientSecretPlaceholder),
			stringVar(workflow.AccessToken.Name, ""),
			stringVar(workflow.CurrentDate.Name, date),
		},
		Item: []collection.Item{
			{Name: LocalRoot, Item: []collection.Item{}},
			{Name: RemoteRoot, Item: []collection.Item{}},
		},
	}
}

// Prune drops the roots of environments env leaves unconfigured. Remaining
// roots keep their relative order.
func Prune(c *collection.Collection, env EnvironmentConfig) {
	kept := c.Item[:0]
	for _, it := range c.Item {
		switch {
		case it.Name == LocalRoot && env.Local == nil:
		case it.Name == RemoteRoot && env.Remote == nil:
		default:
			kept = append(kept, it)
		}
	}
	c.Item = kept
}

// collectionID derives _postman_id from the collection name.
func collectionID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("swagger2postman:"+name)).String()
}

func stringVar(key, value string) collection.Variable {
	return collection.Variable{Key: key, Value: value, Type: "string"}
}
