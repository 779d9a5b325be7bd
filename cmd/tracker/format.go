package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wfunc/dungeon-tracker/internal/models"
	"github.com/wfunc/dungeon-tracker/internal/service"
)

// printRooms prints the seeded room catalog as a table.
func printRooms(out io.Writer, rooms []*models.Room) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, r := range rooms {
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Name, r.Description)
	}
	return w.Flush()
}

// printReport prints one row per room.
func printReport(out io.Writer, reports []service.RoomReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM\tLOOT\tLEFT %\tRIGHT %\tLEFT\tRIGHT\tVISITS")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.RoomLabel, r.LootDisplay, r.LeftPct, r.RightPct, r.LeftCount, r.RightCount, r.Visits)
	}
	return w.Flush()
}

// printPending prints the buffered choices of the current run.
func printPending(out io.Writer, choices []models.PendingChoice) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM\tDOOR\tLOOT")
	for _, c := range choices {
		loot := c.LootName
		if loot == "" {
			loot = "-"
		}
		door := string(c.Door)
		if c.RoomNumber == models.FinalRoom {
			door = "submit"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", models.RoomName(c.RoomNumber), door, loot)
	}
	return w.Flush()
}

// parseDoor accepts "left"/"right" and their first letters, case-insensitive.
func parseDoor(s string) (models.Door, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "left":
		return models.DoorLeft, true
	case "r", "right":
		return models.DoorRight, true
	default:
		return models.Door(s), false
	}
}
