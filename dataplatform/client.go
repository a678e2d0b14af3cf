// Package dataplatform streams telemetry readings and completed optimization plans to Supabase,
// buffering on disk (via package persistence) whenever the upload fails so nothing is lost across a
// network outage. Grounded on the teacher's supabase and data_platform packages, merged into one
// package since the split served no purpose once data_platform was the only caller of supabase.
package dataplatform

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	supa "github.com/nedpals/supabase-go"
)

const (
	supabaseUploadTimeout = time.Second * 10
)

// supabaseClient provides an interface onto the Supabase platform. It hides the underlying
// open-source supabase library and adds reconnection and timeout logic.
type supabaseClient struct {
	url     string
	anonKey string
	userKey string
	schema  string

	subClient       *supa.Client // the raw client of the underlying supabase library we are using
	shouldReconnect bool         // when true, the subClient is 'dirty' and will be re-created next time a read or write call is made
	logger          *slog.Logger
}

func newSupabaseClient(url, anonKey, userKey, schema string) *supabaseClient {
	return &supabaseClient{
		url:             url,
		anonKey:         anonKey,
		userKey:         userKey,
		schema:          schema,
		shouldReconnect: true, // shouldReconnect is marked as true from instantiation so the connection will be made lazily on the first request to read or write
		logger:          slog.Default().With("host", url),
	}
}

// uploadReadings takes the given readings of any type, and attempts to upload to the relevant supabase table.
func (c *supabaseClient) uploadReadings(readings interface{}) error {
	supabaseReadings, supabaseTableName := convertReadingsForSupabase(readings)
	return c.uploadRows(supabaseTableName, supabaseReadings)
}

// uploadPlan uploads a single materialized plan row to the plans table.
func (c *supabaseClient) uploadPlan(plan supabasePlan) error {
	return c.uploadRows(supabasePlansTable, []supabasePlan{plan})
}

// uploadRows inserts rows into the named supabase table, with a timeout since the supabase client
// library doesn't have good timeout support of its own.
func (c *supabaseClient) uploadRows(tableName string, rows interface{}) error {
	c.reconnectIfNeccesary()

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.subClient.DB.From(tableName).Insert(rows).Execute(nil)
	}()

	select {
	case <-time.After(supabaseUploadTimeout):
		c.setShouldReconnect()
		return errors.New("timed out")
	case err := <-errCh:
		if err != nil {
			c.setShouldReconnect()
		}
		return err
	}
}

// createSubClient creates the open-source supabase library client with sensible defaults and connects to the host.
func (c *supabaseClient) createSubClient() error {

	subClient := supa.CreateClient(c.url, c.anonKey)

	// The supabase client library doesn't have a fully featured interface, here we specify options directly by
	// adding headers to the postgrest requests.
	// Use the appropriate schema:
	subClient.DB.AddHeader("Accept-Profile", c.schema)
	subClient.DB.AddHeader("Content-Profile", c.schema)

	// Use a user JWT:
	if c.userKey != "" {
		subClient.DB.AddHeader("Authorization", fmt.Sprintf("Bearer %s", c.userKey))
	}

	c.subClient = subClient

	return nil
}

// setShouldReconnect is called when there has been an error with the connection that should trigger a re-connect.
func (c *supabaseClient) setShouldReconnect() {
	c.shouldReconnect = true
}

// reconnectIfNeccesary will close the old connection and reconnect if there have been problems with the connection.
func (c *supabaseClient) reconnectIfNeccesary() error {
	if !c.shouldReconnect {
		return nil
	}

	if err := c.createSubClient(); err != nil {
		return err
	}

	c.shouldReconnect = false

	c.logger.Info("Created supabase client")

	return nil
}
