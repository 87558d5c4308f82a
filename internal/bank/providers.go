package bank

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bwmarrin/snowflake"
)

// IDProvider hands out transaction ids.
type IDProvider interface {
	NextID() int64
}

type idProvider struct {
	snowflakeNode *snowflake.Node
}

func NewIDProvider(nodeID int64) (IDProvider, error) {

	node, err := snowflake.NewNode(nodeID)

	if err != nil {
		return nil, fmt.Errorf("init snowflake node failed: %w", err)
	}

	return &idProvider{
		snowflakeNode: node,
	}, nil
}

func (i *idProvider) NextID() int64 {
	return i.snowflakeNode.Generate().Int64()
}

type Clock interface {
	NowUTC() time.Time
}

type systemClock struct{}

func NewClock() Clock {
	return &systemClock{}
}

func (systemClock) NowUTC() time.Time {
	return time.Now().UTC()
}

// 帳號為 10 位數，範圍 [1000000000, 9999999999]
const (
	minAccountNumber = 1_000_000_000
	maxAccountNumber = 9_999_999_999
)

// NumberGenerator proposes candidate account numbers. The directory rejects
// candidates already in use, so implementations need not be collision free.
type NumberGenerator interface {
	Candidate() int64
}

type randomNumbers struct{}

func NewRandomNumbers() NumberGenerator {
	return randomNumbers{}
}

func (randomNumbers) Candidate() int64 {
	return minAccountNumber + rand.Int64N(maxAccountNumber-minAccountNumber+1)
}

// ValidAccountNumber reports whether n has the 10-digit account number shape.
func ValidAccountNumber(n int64) bool {
	return n >= minAccountNumber && n <= maxAccountNumber
}
