package models

// These structs define the JSON payloads exchanged with the event source
// and returned by the store.

// GCSEvent is the payload of a GCS object-finalized event. The bucket maps
// to the report's container and the object name to its blob name.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// StoreAck acknowledges a durable report write.
type StoreAck struct {
	PartitionKey string `json:"partition_key"`
	RowKey       string `json:"row_key"`
}
