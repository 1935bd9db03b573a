package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
)

// remove AllowedPaths:Role:id
func ClearPathsCache(roleId int) error {
	return config.RemoveRedisKey("AllowedPaths:Role:" + fmt.Sprint(roleId))
}

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// get type name of struct
func GetType(i interface{}) string {
	return reflect.TypeOf(i).Name()
}

/* Redis */

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.SetRedisObject(key, &obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

/* Tagged list caches.

Master-data list reads are cached under a stable tag key (e.g. "item-master",
"bp-master-S"). The sync routine invalidates the tag after a committed run so
the next read recomputes from the database. */

func StoreTaggedList(tag string, obj any) error {
	return config.SetRedisObject("List:"+tag, &obj, GetCacheLifespan())
}

// returns false if the tag is not cached
func RetrieveTaggedList(tag string, dest any) (bool, error) {
	return config.GetRedisObject("List:"+tag, dest)
}

// InvalidateTag drops a cached list so the next read recomputes.
func InvalidateTag(tag string) error {
	return config.RemoveRedisKey("List:" + tag)
}
