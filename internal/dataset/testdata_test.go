package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const frenchHeader = "Nom du Produit en Français;Groupe d'aliment;Sous-groupe d'aliment;Changement climatique;DQR;code saison;code avion"

var sampleRows = []string{
	frenchHeader,
	"Steak de bœuf;viandes, œufs, poissons;viandes cuites;27,5;2,1;2;0",
	"Tomate crue;fruits, légumes, légumineuses et oléagineux;légumes;0,8;1,9;1;0",
	";fruits, légumes, légumineuses et oléagineux;légumes;1,0;1,9;1;0",
	"Lait demi-écrémé;lait et produits laitiers;laits;1,3;2,0;2;0",
	"Bœuf haché;viandes, œufs, poissons;viandes crues;25,1;2,3;2;0",
	"Fromage mystère;lait et produits laitiers;fromages;;3,0;2;0",
}

func writeFile(t *testing.T, name string, lines []string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func ptr(v float64) *float64 { return &v }
