package laserball

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	"gonum.org/v1/gonum/spatial/r3"
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type ChannelEntry struct {
	PmtID int     `db:"PmtID"`
	LCN   int     `db:"LCN"`
	Type  int     `db:"Type"`
	X     float64 `db:"X"`
	Y     float64 `db:"Y"`
	Z     float64 `db:"Z"`
	U     float64 `db:"U"`
	V     float64 `db:"V"`
	W     float64 `db:"W"`
}

const geometryQuery = "SELECT PmtID, LCN, Type, X, Y, Z, U, V, W FROM PMTInfo WHERE MinRun <= ? AND MaxRun >= ? ORDER BY PmtID"

// LoadGeometryFromDB reads the channel table valid for runNumber.
func LoadGeometryFromDB(db *sqlx.DB, runNumber int) (*Geometry, error) {
	rows, err := db.Queryx(geometryQuery, runNumber, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error querying channel table: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var entry ChannelEntry
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("error reading channel row: %w", err)
		}
		channels = append(channels, Channel{
			ID:        entry.PmtID,
			LCN:       entry.LCN,
			Type:      entry.Type,
			Position:  r3.Vec{X: entry.X, Y: entry.Y, Z: entry.Z},
			Direction: r3.Vec{X: entry.U, Y: entry.V, Z: entry.W},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading channel table: %w", err)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels found for run %d", runNumber)
	}
	logger.Info(fmt.Sprintf("Read %d channels for run %d", len(channels), runNumber), "database")
	return NewGeometry(channels)
}
