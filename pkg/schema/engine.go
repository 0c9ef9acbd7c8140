package schema

import "strings"

// EngineDescriptor is a read-only snapshot of a table's engine as reported by
// system.tables. Optional keys are empty when the engine does not define them.
type EngineDescriptor struct {
	Engine           string `json:"engine" ch:"engine"`
	EngineFull       string `json:"engine_full" ch:"engine_full"`
	CreateTableQuery string `json:"create_table_query" ch:"create_table_query"`
	PartitionKey     string `json:"partition_key,omitempty" ch:"partition_key"`
	SortingKey       string `json:"sorting_key,omitempty" ch:"sorting_key"`
	PrimaryKey       string `json:"primary_key,omitempty" ch:"primary_key"`
	SamplingKey      string `json:"sampling_key,omitempty" ch:"sampling_key"`
}

// IsDistributed reports whether the table fans out over a cluster.
func (e EngineDescriptor) IsDistributed() bool {
	return strings.EqualFold(e.Engine, "Distributed")
}

// IsReplicated reports whether the engine is one of the Replicated* family.
func (e EngineDescriptor) IsReplicated() bool {
	return strings.HasPrefix(e.Engine, "Replicated")
}

// Column describes one column from system.columns.
type Column struct {
	Name     string `json:"name" ch:"name"`
	Type     string `json:"type" ch:"type"`
	Position uint64 `json:"position" ch:"position"`
}

// ColumnNames returns just the names, in the order given.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
