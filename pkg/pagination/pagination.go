package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Size   int
	Offset int
}

// Parse extracts and validates page/size from query parameters.
// "limit" is accepted as an alias of "size".
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))

	sizeStr := c.Query("size")
	if sizeStr == "" {
		sizeStr = c.DefaultQuery("limit", strconv.Itoa(DefaultSize))
	}
	size, _ := strconv.Atoi(sizeStr)

	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	return Params{
		Page:   page,
		Size:   size,
		Offset: (page - 1) * size,
	}
}
