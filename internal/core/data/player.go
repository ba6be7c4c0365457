package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Player records the last known credit balance for a connecting host.
type Player struct {
	ID         uint64 `gorm:"primaryKey"`
	RemoteHost string `gorm:"unique; not null"`
	Credits    int    `gorm:"not null"`
	LastSeen   time.Time
}

// FindPlayerByRemoteHost searches for a player record for the specified host,
// returning the *Player instance if found or nil if there is no match.
func FindPlayerByRemoteHost(db *gorm.DB, remoteHost string) (*Player, error) {
	var player Player
	err := db.Where("remote_host = ?", remoteHost).First(&player).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &player, nil
}

// CreatePlayer persists the Player record to the database.
func CreatePlayer(db *gorm.DB, player *Player) error {
	return db.Create(player).Error
}

// SavePlayerCredits records the balance for a host, creating the record
// if this is the first time the host has been seen.
func SavePlayerCredits(db *gorm.DB, remoteHost string, credits int) error {
	player, err := FindPlayerByRemoteHost(db, remoteHost)
	if err != nil {
		return err
	}

	if player == nil {
		return CreatePlayer(db, &Player{
			RemoteHost: remoteHost,
			Credits:    credits,
			LastSeen:   time.Now(),
		})
	}

	player.Credits = credits
	player.LastSeen = time.Now()
	return db.Save(player).Error
}

// DeletePlayer removes a Player record from the database.
func DeletePlayer(db *gorm.DB, player *Player) error {
	return db.Delete(player).Error
}
