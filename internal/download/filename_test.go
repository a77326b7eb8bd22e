package download

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tunecrate/pkg/models"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "AC_DC - Back In Black.mp3", SanitizeFilename(`AC/DC - Back In Black.mp3`))
	assert.Equal(t, "what__.mp3", SanitizeFilename(`what?*.mp3`))
	assert.Equal(t, "a_b_c_d_e_f_g_h_i", SanitizeFilename(`a<b>c:d"e/f\g|h?i`))
	assert.Equal(t, "plain.mp3", SanitizeFilename("  plain.mp3  "))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "Sezen Aksu - Gülümse.mp3", OutputName(models.Item{
		Title: "Gülümse", Artist: "Sezen Aksu",
	}))

	// Missing fields fall back to source and id.
	assert.Equal(t, "catalog - 1532771.mp3", OutputName(models.Item{
		ID: "1532771", Source: models.SourceCatalog,
	}))
}
