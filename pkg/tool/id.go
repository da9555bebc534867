package tool

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// GenerateSnowflakeID returns a time-sortable numeric id used for
// append-only rows such as subscription history entries.
func GenerateSnowflakeID() int64 {
	nodeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		node = n
	})
	return node.Generate().Int64()
}
